package repositories

import (
	"context"
	"crew-route-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedYAML(t *testing.T) {
	s, err := LoadSeed("testdata/seed.yaml")
	require.NoError(t, err)

	assert.Len(t, s.Companies, 2)
	assert.Len(t, s.Customers, 4)
	assert.Len(t, s.Crews, 2)

	alvarez := s.Customers[0]
	assert.Equal(t, "cust-2", alvarez.ID)
	assert.Equal(t, []domain.Weekday{domain.Monday, domain.Thursday}, alvarez.Preferences.PreferredDays)
	assert.Equal(t, []string{"mow", "trim"}, alvarez.ServiceTypes())
	require.NotNil(t, alvarez.LastServiceDate)
	assert.True(t, alvarez.LastServiceDate.Equal(time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC)))

	alpha := s.Crews[1]
	assert.Equal(t, 8, alpha.MaxCustomers)
	assert.Equal(t, domain.TimeWindow{Start: "07:00", End: "17:00"}, alpha.WorkingHours[domain.Tuesday])
	require.NotNil(t, alpha.CurrentLocation)
}

func TestLoadSeedJSON(t *testing.T) {
	s, err := LoadSeed("testdata/seed.json")
	require.NoError(t, err)

	require.Len(t, s.Customers, 1)
	assert.Equal(t, domain.CustomerActive, s.Customers[0].Status)
	assert.Equal(t, 1, len(s.Crews[0].WorkingHours))
}

func TestLoadSeedRejectsInvalid(t *testing.T) {
	_, err := LoadSeed("testdata/bad_company.json")
	assert.ErrorContains(t, err, "unknown company")

	_, err = LoadSeed("testdata/missing.json")
	assert.Error(t, err)
}

func TestSeedValidate(t *testing.T) {
	base := domain.Coordinates{Lon: 200, Lat: 0}
	tests := []struct {
		name string
		seed Seed
	}{
		{"empty company id", Seed{Companies: []CompanySeed{{ID: " "}}}},
		{"bad base", Seed{Companies: []CompanySeed{{ID: "co1", Base: &base}}}},
		{"duplicate customer", Seed{
			Companies: []CompanySeed{{ID: "co1"}},
			Customers: []domain.Customer{{ID: "c1", CompanyID: "co1"}, {ID: "c1", CompanyID: "co1"}},
		}},
		{"bad customer location", Seed{
			Companies: []CompanySeed{{ID: "co1"}},
			Customers: []domain.Customer{{ID: "c1", CompanyID: "co1", Location: domain.Coordinates{Lat: -91}}},
		}},
		{"duplicate crew", Seed{
			Companies: []CompanySeed{{ID: "co1"}},
			Crews:     []domain.CrewAvailability{{CrewID: "k", CompanyID: "co1"}, {CrewID: "k", CompanyID: "co1"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.seed.Validate())
		})
	}
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := LoadSnapshotRepository("testdata/seed.yaml")
	require.NoError(t, err)

	customers, err := repo.ListActiveCustomers(ctx, "co1")
	require.NoError(t, err)
	require.Len(t, customers, 2, "inactive and other-company customers are excluded")
	assert.Equal(t, "cust-1", customers[0].ID)
	assert.Equal(t, domain.CustomerActive, customers[0].Status)

	crews, err := repo.ListCrews(ctx, "co1")
	require.NoError(t, err)
	require.Len(t, crews, 2)
	assert.Equal(t, "crew-a", crews[0].CrewID)

	loc, ok, err := repo.BaseLocation(ctx, "co1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, -112.074, loc.Lon, 1e-9)

	_, ok, _ = repo.BaseLocation(ctx, "co2")
	assert.False(t, ok)

	assert.Equal(t, []string{"co1", "co2"}, repo.Companies())
}

func TestDemoSeedLoads(t *testing.T) {
	s, err := LoadSeed("../../../data/seeds/demo.yaml")
	require.NoError(t, err)

	repo := NewSnapshotRepository(s)
	customers, err := repo.ListActiveCustomers(context.Background(), "desert-lawn")
	require.NoError(t, err)
	// dl-007 is paused.
	assert.Len(t, customers, 7)

	base, ok, err := repo.BaseLocation(context.Background(), "valley-pools")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.Coordinates{}, base)
}
