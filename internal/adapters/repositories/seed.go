package repositories

import (
	"context"
	"crew-route-service/internal/domain"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type CompanySeed struct {
	ID   string              `json:"id" yaml:"id"`
	Name string              `json:"name" yaml:"name"`
	Base *domain.Coordinates `json:"base,omitempty" yaml:"base,omitempty"`
}

// Seed is a company snapshot: companies, their customers and their crews.
type Seed struct {
	Companies []CompanySeed             `json:"companies" yaml:"companies"`
	Customers []domain.Customer         `json:"customers" yaml:"customers"`
	Crews     []domain.CrewAvailability `json:"crews" yaml:"crews"`
}

// LoadSeed reads a snapshot file. .yaml and .yml are parsed as YAML,
// anything else as JSON.
func LoadSeed(path string) (Seed, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("load seed: read %q: %w", path, err)
	}

	var s Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bytes, &s); err != nil {
			return Seed{}, fmt.Errorf("load seed: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(bytes, &s); err != nil {
			return Seed{}, fmt.Errorf("load seed: parse json: %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return Seed{}, fmt.Errorf("load seed %q: %w", path, err)
	}
	return s, nil
}

// Validate checks ids and coordinates before anything is written.
func (s Seed) Validate() error {
	companies := make(map[string]struct{}, len(s.Companies))
	for i, c := range s.Companies {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("company at index %d: id cannot be empty", i+1)
		}
		if c.Base != nil && !c.Base.Valid() {
			return fmt.Errorf("company %s: invalid base location %+v", id, *c.Base)
		}
		companies[id] = struct{}{}
	}

	seen := map[string]struct{}{}
	for i, c := range s.Customers {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("customer at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("customer %s: duplicate id", c.ID)
		}
		seen[c.ID] = struct{}{}
		if _, ok := companies[c.CompanyID]; !ok {
			return fmt.Errorf("customer %s: unknown company %q", c.ID, c.CompanyID)
		}
		if !c.Location.Valid() {
			return fmt.Errorf("customer %s: invalid location %+v", c.ID, c.Location)
		}
	}

	seen = map[string]struct{}{}
	for i, c := range s.Crews {
		if strings.TrimSpace(c.CrewID) == "" {
			return fmt.Errorf("crew at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[c.CrewID]; ok {
			return fmt.Errorf("crew %s: duplicate id", c.CrewID)
		}
		seen[c.CrewID] = struct{}{}
		if _, ok := companies[c.CompanyID]; !ok {
			return fmt.Errorf("crew %s: unknown company %q", c.CrewID, c.CompanyID)
		}
		if c.CurrentLocation != nil && !c.CurrentLocation.Valid() {
			return fmt.Errorf("crew %s: invalid current location %+v", c.CrewID, *c.CurrentLocation)
		}
	}
	return nil
}

// SeedDatabase upserts every row of s in one transaction.
func SeedDatabase(ctx context.Context, db *sql.DB, s Seed) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed database: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range s.Companies {
		var lon, lat sql.NullFloat64
		if c.Base != nil {
			lon = sql.NullFloat64{Float64: c.Base.Lon, Valid: true}
			lat = sql.NullFloat64{Float64: c.Base.Lat, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO companies (company_id, name, base_lon, base_lat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE
		SET name = EXCLUDED.name, base_lon = EXCLUDED.base_lon, base_lat = EXCLUDED.base_lat;
		`, c.ID, c.Name, lon, lat)
		if err != nil {
			return fmt.Errorf("seed database: insert company_id=%s: %w", c.ID, err)
		}
	}

	for _, c := range s.Customers {
		services, prefs, err := marshalJSONB(c.Services, c.Preferences)
		if err != nil {
			return fmt.Errorf("seed database: customer %s: %w", c.ID, err)
		}
		status := c.Status
		if status == "" {
			status = domain.CustomerActive
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (customer_id, company_id, name, lon, lat, status, services, preferences, last_service_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (customer_id) DO UPDATE
		SET company_id = EXCLUDED.company_id, name = EXCLUDED.name,
			lon = EXCLUDED.lon, lat = EXCLUDED.lat, status = EXCLUDED.status,
			services = EXCLUDED.services, preferences = EXCLUDED.preferences,
			last_service_date = EXCLUDED.last_service_date;
		`, c.ID, c.CompanyID, c.Name, c.Location.Lon, c.Location.Lat, string(status), services, prefs, c.LastServiceDate)
		if err != nil {
			return fmt.Errorf("seed database: insert customer_id=%s: %w", c.ID, err)
		}
	}

	for _, c := range s.Crews {
		employees, caps, err := marshalJSONB(nonNil(c.EmployeeIDs), nonNil(c.Capabilities))
		if err != nil {
			return fmt.Errorf("seed database: crew %s: %w", c.CrewID, err)
		}
		hours, err := json.Marshal(c.WorkingHours)
		if err != nil {
			return fmt.Errorf("seed database: crew %s: encode working hours: %w", c.CrewID, err)
		}
		var lon, lat sql.NullFloat64
		if c.CurrentLocation != nil {
			lon = sql.NullFloat64{Float64: c.CurrentLocation.Lon, Valid: true}
			lat = sql.NullFloat64{Float64: c.CurrentLocation.Lat, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO crews (crew_id, company_id, name, employee_ids, capabilities, working_hours, current_lon, current_lat, max_customers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (crew_id) DO UPDATE
		SET company_id = EXCLUDED.company_id, name = EXCLUDED.name,
			employee_ids = EXCLUDED.employee_ids, capabilities = EXCLUDED.capabilities,
			working_hours = EXCLUDED.working_hours, current_lon = EXCLUDED.current_lon,
			current_lat = EXCLUDED.current_lat, max_customers = EXCLUDED.max_customers;
		`, c.CrewID, c.CompanyID, c.Name, employees, caps, string(hours), lon, lat, c.MaxCustomers)
		if err != nil {
			return fmt.Errorf("seed database: insert crew_id=%s: %w", c.CrewID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed database: commit tx: %w", err)
	}
	return nil
}

func marshalJSONB(a, b any) (string, string, error) {
	ja, err := json.Marshal(a)
	if err != nil {
		return "", "", fmt.Errorf("encode jsonb: %w", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return "", "", fmt.Errorf("encode jsonb: %w", err)
	}
	return string(ja), string(jb), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
