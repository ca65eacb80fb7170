//go:build postgres_integration

package repositories

import (
	"crew-route-service/internal/platform/db"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSeedRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	conn, err := db.Open(t.Context(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(t.Context(), conn))
	s, err := LoadSeed("testdata/seed.yaml")
	require.NoError(t, err)
	require.NoError(t, SeedDatabase(t.Context(), conn, s))

	customers, err := NewPostgresCustomerRepository(conn).ListActiveCustomers(t.Context(), "co1")
	require.NoError(t, err)
	require.Len(t, customers, 2, "inactive customers are excluded")
	assert.Equal(t, "cust-1", customers[0].ID)

	crews, err := NewPostgresCrewRepository(conn).ListCrews(t.Context(), "co1")
	require.NoError(t, err)
	require.Len(t, crews, 2)
	assert.Equal(t, 8, crews[0].MaxCustomers)

	_, ok, err := NewPostgresCompanyRepository(conn).BaseLocation(t.Context(), "co2")
	require.NoError(t, err)
	assert.False(t, ok)
}
