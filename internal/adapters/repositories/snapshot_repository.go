package repositories

import (
	"cmp"
	"context"
	"crew-route-service/internal/domain"
	"slices"
)

// SnapshotRepository serves customers, crews and company bases from a Seed
// held in memory. It backs the CLI and tests.
type SnapshotRepository struct {
	seed Seed
}

func NewSnapshotRepository(s Seed) *SnapshotRepository {
	return &SnapshotRepository{seed: s}
}

// LoadSnapshotRepository reads a JSON or YAML seed file.
func LoadSnapshotRepository(path string) (*SnapshotRepository, error) {
	s, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return NewSnapshotRepository(s), nil
}

func (r *SnapshotRepository) ListActiveCustomers(ctx context.Context, companyID string) ([]domain.Customer, error) {
	out := make([]domain.Customer, 0, len(r.seed.Customers))
	for _, c := range r.seed.Customers {
		if c.CompanyID == companyID && (c.Status == "" || c.Status == domain.CustomerActive) {
			if c.Status == "" {
				c.Status = domain.CustomerActive
			}
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Customer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *SnapshotRepository) ListCrews(ctx context.Context, companyID string) ([]domain.CrewAvailability, error) {
	out := make([]domain.CrewAvailability, 0, len(r.seed.Crews))
	for _, c := range r.seed.Crews {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.CrewAvailability) int { return cmp.Compare(a.CrewID, b.CrewID) })
	return out, nil
}

func (r *SnapshotRepository) BaseLocation(ctx context.Context, companyID string) (domain.Coordinates, bool, error) {
	for _, c := range r.seed.Companies {
		if c.ID == companyID && c.Base != nil {
			return *c.Base, true, nil
		}
	}
	return domain.Coordinates{}, false, nil
}

// Companies lists the company ids in the snapshot.
func (r *SnapshotRepository) Companies() []string {
	out := make([]string, 0, len(r.seed.Companies))
	for _, c := range r.seed.Companies {
		out = append(out, c.ID)
	}
	return out
}
