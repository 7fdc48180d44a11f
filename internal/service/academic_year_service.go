package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type academicYearRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.AcademicYear, error)
	FindDefault(ctx context.Context, organisationID string) (*models.AcademicYear, error)
	List(ctx context.Context, organisationID string) ([]models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
}

// CreateAcademicYearRequest is the payload for a new academic year.
type CreateAcademicYearRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsDefault bool   `json:"is_default"`
}

// AcademicYearService manages academic years.
type AcademicYearService struct {
	repo      academicYearRepository
	audit     *AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService constructs the service.
func NewAcademicYearService(repo academicYearRepository, audit *AuditRecorder, validate *validator.Validate, logger *zap.Logger) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns the organisation's years, newest first.
func (s *AcademicYearService) List(ctx context.Context, actor models.Actor) ([]models.AcademicYear, error) {
	years, err := s.repo.List(ctx, actor.OrganisationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// Get returns one year.
func (s *AcademicYearService) Get(ctx context.Context, actor models.Actor, id string) (*models.AcademicYear, error) {
	year, err := s.repo.FindByID(ctx, actor.OrganisationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

// Default returns the year flagged is_default.
func (s *AcademicYearService) Default(ctx context.Context, actor models.Actor) (*models.AcademicYear, error) {
	year, err := s.repo.FindDefault(ctx, actor.OrganisationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no default academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default academic year")
	}
	return year, nil
}

// Create validates the date range and stores the year.
func (s *AcademicYearService) Create(ctx context.Context, actor models.Actor, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	year := &models.AcademicYear{
		OrganisationID: actor.OrganisationID,
		Name:           strings.TrimSpace(req.Name),
		StartDate:      start,
		EndDate:        end,
		IsActive:       true,
		IsDefault:      req.IsDefault,
	}
	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	s.audit.Record(ctx, actor, models.AuditActionAcademicYearCreate, models.EntityAcademicYear, year.ID, year)
	return year, nil
}
