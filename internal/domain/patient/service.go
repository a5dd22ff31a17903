package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalid marks a request rejected by field validation.
var ErrInvalid = errors.New("invalid patient")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "patient").Logger()}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.Status == "" {
		p.Status = StatusInquiry
	}
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Country == "" {
		p.Country = DefaultCountry
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("create patient failed")
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id string, u *Update) (*Patient, error) {
	if err := validateStruct(u); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, u)
}

func (s *Service) DeletePatient(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, order ListOrder) ([]*Patient, error) {
	order, err := order.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.repo.List(ctx, order)
}

// Reset replaces every stored patient with the given set.
func (s *Service) Reset(ctx context.Context, patients []*Patient) (int, error) {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("clear patients: %w", err)
	}
	for i, p := range patients {
		if err := s.CreatePatient(ctx, p); err != nil {
			return i, err
		}
	}
	return len(patients), nil
}
