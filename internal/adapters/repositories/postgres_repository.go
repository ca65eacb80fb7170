package repositories

import (
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/platform/obs"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresCustomerRepository implements ports.CustomerRepository.
type PostgresCustomerRepository struct{ DB *sql.DB }

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{DB: db}
}

// Return active customers for a company ordered by id.
func (r *PostgresCustomerRepository) ListActiveCustomers(ctx context.Context, companyID string) (_ []domain.Customer, err error) {
	defer obs.Time(ctx, "customers.ListActive")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres customer repository: DB is nil")
	}

	query := `
	SELECT
		customer_id,
		company_id,
		name,
		lon,
		lat,
		status,
		services,
		preferences,
		last_service_date
	FROM customers
	WHERE company_id = $1 AND status = 'active'
	ORDER BY customer_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list customers: query customers table: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		var status string
		var services, prefs []byte
		var last sql.NullTime
		err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Location.Lon, &c.Location.Lat, &status, &services, &prefs, &last)
		if err != nil {
			return nil, fmt.Errorf("list customers: scan row: %w", err)
		}
		c.Status = domain.CustomerStatus(status)
		if err := json.Unmarshal(services, &c.Services); err != nil {
			return nil, fmt.Errorf("list customers: customer %s: decode services: %w", c.ID, err)
		}
		if err := json.Unmarshal(prefs, &c.Preferences); err != nil {
			return nil, fmt.Errorf("list customers: customer %s: decode preferences: %w", c.ID, err)
		}
		if last.Valid {
			t := last.Time
			c.LastServiceDate = &t
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: row iteration: %w", err)
	}

	return customers, nil
}

// PostgresCrewRepository implements ports.CrewRepository.
type PostgresCrewRepository struct{ DB *sql.DB }

func NewPostgresCrewRepository(db *sql.DB) *PostgresCrewRepository {
	return &PostgresCrewRepository{DB: db}
}

func (r *PostgresCrewRepository) ListCrews(ctx context.Context, companyID string) (_ []domain.CrewAvailability, err error) {
	defer obs.Time(ctx, "crews.List")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres crew repository: DB is nil")
	}

	query := `
	SELECT
		crew_id,
		company_id,
		name,
		employee_ids,
		capabilities,
		working_hours,
		current_lon,
		current_lat,
		max_customers
	FROM crews
	WHERE company_id = $1
	ORDER BY crew_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list crews: query crews table: %w", err)
	}
	defer rows.Close()

	crews := make([]domain.CrewAvailability, 0, 16)
	for rows.Next() {
		var c domain.CrewAvailability
		var employees, caps, hours []byte
		var lon, lat sql.NullFloat64
		err := rows.Scan(&c.CrewID, &c.CompanyID, &c.Name, &employees, &caps, &hours, &lon, &lat, &c.MaxCustomers)
		if err != nil {
			return nil, fmt.Errorf("list crews: scan row: %w", err)
		}
		if err := decodeCrewJSON(&c, employees, caps, hours); err != nil {
			return nil, fmt.Errorf("list crews: crew %s: %w", c.CrewID, err)
		}
		if lon.Valid && lat.Valid {
			c.CurrentLocation = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
		}
		crews = append(crews, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list crews: row iteration: %w", err)
	}

	return crews, nil
}

func decodeCrewJSON(c *domain.CrewAvailability, employees, caps, hours []byte) error {
	if err := json.Unmarshal(employees, &c.EmployeeIDs); err != nil {
		return fmt.Errorf("decode employee_ids: %w", err)
	}
	if err := json.Unmarshal(caps, &c.Capabilities); err != nil {
		return fmt.Errorf("decode capabilities: %w", err)
	}
	if err := json.Unmarshal(hours, &c.WorkingHours); err != nil {
		return fmt.Errorf("decode working_hours: %w", err)
	}
	return nil
}

// PostgresCompanyRepository implements ports.DepotLocator.
type PostgresCompanyRepository struct{ DB *sql.DB }

func NewPostgresCompanyRepository(db *sql.DB) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{DB: db}
}

// BaseLocation returns the company's configured base. ok is false when the
// company is unknown or has no base set.
func (r *PostgresCompanyRepository) BaseLocation(ctx context.Context, companyID string) (domain.Coordinates, bool, error) {
	if r.DB == nil {
		return domain.Coordinates{}, false, errors.New("postgres company repository: DB is nil")
	}

	var lon, lat sql.NullFloat64
	err := r.DB.QueryRowContext(ctx,
		`SELECT base_lon, base_lat FROM companies WHERE company_id = $1;`, companyID,
	).Scan(&lon, &lat)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("base location: company %s: %w", companyID, err)
	}
	if !lon.Valid || !lat.Valid {
		return domain.Coordinates{}, false, nil
	}
	return domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}, true, nil
}
