package service

import (
	"context"
	"strings"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EmployeeService interface {
	Create(ctx context.Context, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	List(ctx context.Context) ([]dto.EmployeeResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type employeeService struct {
	repo  repository.EmployeeRepository
	cache SummaryInvalidator // optional
}

// NewEmployeeService bumps cache on every roster change.
func NewEmployeeService(repo repository.EmployeeRepository, cache SummaryInvalidator) EmployeeService {
	return &employeeService{repo: repo, cache: cache}
}

func (s *employeeService) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	e := &model.Employee{
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		Branch:         strings.TrimSpace(req.Branch),
		RequiresCashUp: true,
		Active:         true,
	}
	if req.RequiresCashUp != nil {
		e.RequiresCashUp = *req.RequiresCashUp
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := toEmployeeResponse(e)
	return &resp, nil
}

func (s *employeeService) List(ctx context.Context) ([]dto.EmployeeResponse, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmployeeResponse, len(employees))
	for i := range employees {
		out[i] = toEmployeeResponse(&employees[i])
	}
	return out, nil
}

// Deactivate removes the employee from the cash-up roster. Past submissions stay.
func (s *employeeService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *employeeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		log.Warn().Err(err).Msg("employee: summary cache invalidation failed")
	}
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:             e.ID.String(),
		Name:           e.Name,
		Email:          e.Email,
		Branch:         e.Branch,
		RequiresCashUp: e.RequiresCashUp,
		Active:         e.Active,
	}
}
