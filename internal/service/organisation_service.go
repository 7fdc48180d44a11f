package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type organisationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Organisation, error)
	ListActive(ctx context.Context) ([]models.Organisation, error)
}

// OrganisationService resolves the tenant a request is scoped to.
type OrganisationService struct {
	repo organisationRepository
}

// NewOrganisationService constructs the service.
func NewOrganisationService(repo organisationRepository) *OrganisationService {
	return &OrganisationService{repo: repo}
}

// Resolve returns the organisation when it exists and is active.
func (s *OrganisationService) Resolve(ctx context.Context, id string) (*models.Organisation, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "organisation is required")
	}
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "organisation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organisation")
	}
	if !org.IsActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "organisation is inactive")
	}
	return org, nil
}

// ListActive returns every active organisation.
func (s *OrganisationService) ListActive(ctx context.Context) ([]models.Organisation, error) {
	orgs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list organisations")
	}
	return orgs, nil
}
