package cache

import (
	"context"
	"crew-route-service/internal/ports"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSqlite(t *testing.T) *SqliteDistanceCache {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewSqliteDistanceCache(db)
	require.NoError(t, c.InitSchema(context.Background()))
	return c
}

func TestSqliteDistanceCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openSqlite(t)

	err := c.PutMany(ctx, "33.45000,-112.07000", map[string]ports.DistanceResult{
		"33.50000,-112.00000": {DistanceMiles: 5.5, DurationMinutes: 11},
		"33.40000,-111.90000": {DistanceMiles: 9.25, DurationMinutes: 17.5},
	})
	require.NoError(t, err)

	got, err := c.GetMany(ctx, "33.45000,-112.07000", []string{
		"33.50000,-112.00000",
		" 33.50000,-112.00000 ",
		"33.40000,-111.90000",
		"0.00000,0.00000",
		"",
	})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, ports.DistanceResult{DistanceMiles: 9.25, DurationMinutes: 17.5}, got["33.40000,-111.90000"])
}

func TestSqliteDistanceCacheOverwrites(t *testing.T) {
	ctx := context.Background()
	c := openSqlite(t)

	require.NoError(t, c.PutMany(ctx, "o", map[string]ports.DistanceResult{"d": {DistanceMiles: 1, DurationMinutes: 2}}))
	require.NoError(t, c.PutMany(ctx, "o", map[string]ports.DistanceResult{"d": {DistanceMiles: 3, DurationMinutes: 4}}))

	got, err := c.GetMany(ctx, "o", []string{"d"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got["d"].DistanceMiles)
}

func TestSqliteDistanceCacheValidation(t *testing.T) {
	ctx := context.Background()
	c := openSqlite(t)

	_, err := c.GetMany(ctx, "", []string{"d"})
	assert.Error(t, err)
	assert.Error(t, c.PutMany(ctx, "o", map[string]ports.DistanceResult{" ": {}}))

	got, err := c.GetMany(ctx, "o", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	var nilDB SqliteDistanceCache
	_, err = nilDB.GetMany(ctx, "o", []string{"d"})
	assert.Error(t, err)
}
