package patient

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListHealthUnits(ctx context.Context, activeOnly bool) ([]*HealthUnit, error) {
	return s.repo.ListHealthUnits(ctx, activeOnly)
}

// Regions returns the regions that have at least one active unit.
func (s *Service) Regions(ctx context.Context) ([]string, error) {
	return s.repo.ListRegions(ctx)
}
