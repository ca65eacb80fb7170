package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the Postgres tables used by the service.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCompaniesQuery := `
	CREATE TABLE IF NOT EXISTS companies (
		company_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		base_lon DOUBLE PRECISION,
		base_lat DOUBLE PRECISION
	);
	`

	createCustomersQuery := `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(company_id),
		name TEXT NOT NULL DEFAULT '',
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		services JSONB NOT NULL DEFAULT '[]',
		preferences JSONB NOT NULL DEFAULT '{}',
		last_service_date TIMESTAMPTZ
	);
	`

	createCrewsQuery := `
	CREATE TABLE IF NOT EXISTS crews (
		crew_id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(company_id),
		name TEXT NOT NULL DEFAULT '',
		employee_ids JSONB NOT NULL DEFAULT '[]',
		capabilities JSONB NOT NULL DEFAULT '[]',
		working_hours JSONB NOT NULL DEFAULT '{}',
		current_lon DOUBLE PRECISION,
		current_lat DOUBLE PRECISION,
		max_customers INTEGER NOT NULL DEFAULT 0
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_miles DOUBLE PRECISION NOT NULL,
        duration_minutes DOUBLE PRECISION NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`

	statements := []string{
		createCompaniesQuery,
		createCustomersQuery,
		createCrewsQuery,
		createDistanceCacheQuery,
		`CREATE INDEX IF NOT EXISTS idx_customers_company_status ON customers(company_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_crews_company ON crews(company_id);`,
		`CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin ON distance_cache(destination, origin);`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
