package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type moduleProfileRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.ModuleProfile, error)
	ListActive(ctx context.Context, organisationID string) ([]models.ModuleProfile, error)
	List(ctx context.Context, organisationID string, filter models.ModuleProfileFilter) ([]models.ModuleProfile, int, error)
	ExistsByCode(ctx context.Context, organisationID, code, excludeID string) (bool, error)
	Create(ctx context.Context, profile *models.ModuleProfile) error
	Update(ctx context.Context, profile *models.ModuleProfile) error
	Deactivate(ctx context.Context, organisationID, id string) error
}

type moduleRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.Module, error)
	ListByYear(ctx context.Context, organisationID, academicYearID string) ([]models.Module, error)
	ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error)
	Create(ctx context.Context, module *models.Module) error
}

type academicYearReader interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.AcademicYear, error)
}

// ModuleProfileRequest is the payload for creating or updating a module profile.
type ModuleProfileRequest struct {
	Code                 string  `json:"code" validate:"required,max=50"`
	Title                string  `json:"title" validate:"required,max=255"`
	Credits              int     `json:"credits"`
	Level                int     `json:"level"`
	DefaultTeachingHours float64 `json:"default_teaching_hours"`
	DefaultMarkingHours  float64 `json:"default_marking_hours"`
	ModuleLeader         *string `json:"module_leader" validate:"omitempty,max=255"`
	Active               *bool   `json:"active"`
}

// CreateModuleRequest offers a profile in an academic year.
type CreateModuleRequest struct {
	ProfileID      string  `json:"profile_id" validate:"required"`
	AcademicYearID string  `json:"academic_year_id" validate:"required"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

// ModuleService manages module profiles and their year instances.
type ModuleService struct {
	profiles  moduleProfileRepository
	modules   moduleRepository
	years     academicYearReader
	audit     *AuditRecorder
	cache     CacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModuleService constructs the service.
func NewModuleService(profiles moduleProfileRepository, modules moduleRepository, years academicYearReader, audit *AuditRecorder, cache CacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{profiles: profiles, modules: modules, years: years, audit: audit, cache: invalidatorOrNoop(cache), validator: validate, logger: logger}
}

// ListProfiles returns profiles plus pagination data.
func (s *ModuleService) ListProfiles(ctx context.Context, actor models.Actor, filter models.ModuleProfileFilter) ([]models.ModuleProfile, *models.Pagination, error) {
	profiles, total, err := s.profiles.List(ctx, actor.OrganisationID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list module profiles")
	}
	return profiles, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetProfile returns a profile by id.
func (s *ModuleService) GetProfile(ctx context.Context, actor models.Actor, id string) (*models.ModuleProfile, error) {
	profile, err := s.profiles.FindByID(ctx, actor.OrganisationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module profile")
	}
	return profile, nil
}

// CreateProfile registers a module profile with a code unique in the organisation.
func (s *ModuleService) CreateProfile(ctx context.Context, actor models.Actor, req ModuleProfileRequest) (*models.ModuleProfile, error) {
	if err := s.validateProfile(req); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if err := s.ensureUniqueCode(ctx, actor, code, ""); err != nil {
		return nil, err
	}

	profile := &models.ModuleProfile{OrganisationID: actor.OrganisationID, IsActive: true}
	applyProfileRequest(profile, req)
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionModuleProfileCreate, models.EntityModuleProfile, profile.ID, profile)
	return profile, nil
}

// UpdateProfile modifies a profile. Keeping its own code is not a duplicate.
func (s *ModuleService) UpdateProfile(ctx context.Context, actor models.Actor, id string, req ModuleProfileRequest) (*models.ModuleProfile, error) {
	if err := s.validateProfile(req); err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, actor, strings.TrimSpace(req.Code), profile.ID); err != nil {
		return nil, err
	}

	applyProfileRequest(profile, req)
	if err := s.profiles.Update(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module profile")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionModuleProfileUpdate, models.EntityModuleProfile, profile.ID, profile)
	return profile, nil
}

// DeactivateProfile soft-deletes a profile.
func (s *ModuleService) DeactivateProfile(ctx context.Context, actor models.Actor, id string) error {
	if err := s.profiles.Deactivate(ctx, actor.OrganisationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate module profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionModuleProfileDelete, models.EntityModuleProfile, id, nil)
	return nil
}

// ListModules returns the live modules of an academic year.
func (s *ModuleService) ListModules(ctx context.Context, actor models.Actor, academicYearID string) ([]models.Module, error) {
	modules, err := s.modules.ListByYear(ctx, actor.OrganisationID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, nil
}

// CreateModule offers a profile in a year, at most once per (profile, year).
func (s *ModuleService) CreateModule(ctx context.Context, actor models.Actor, req CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	if _, err := s.GetProfile(ctx, actor, req.ProfileID); err != nil {
		return nil, err
	}
	if err := requireAcademicYear(ctx, s.years, actor, req.AcademicYearID); err != nil {
		return nil, err
	}
	exists, err := s.modules.ExistsForYear(ctx, actor.OrganisationID, req.ProfileID, req.AcademicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, MessageAlreadyInYear)
	}

	module := newModuleInstance(actor.OrganisationID, req.ProfileID, req.AcademicYearID)
	module.Notes = normalizeOptional(req.Notes)
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	s.audit.Record(ctx, actor, models.AuditActionModuleCreate, models.EntityModule, module.ID, module)
	return module, nil
}

func (s *ModuleService) validateProfile(req ModuleProfileRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module profile payload")
	}
	if msg := moduleFiguresProblem(req.Credits, req.Level, req.DefaultTeachingHours, req.DefaultMarkingHours); msg != "" {
		return appErrors.Clone(appErrors.ErrValidation, msg)
	}
	return nil
}

func (s *ModuleService) ensureUniqueCode(ctx context.Context, actor models.Actor, code, excludeID string) error {
	exists, err := s.profiles.ExistsByCode(ctx, actor.OrganisationID, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, MessageModuleCodeExists)
	}
	return nil
}

func applyProfileRequest(profile *models.ModuleProfile, req ModuleProfileRequest) {
	profile.Code = strings.TrimSpace(req.Code)
	profile.Title = strings.TrimSpace(req.Title)
	profile.Credits = req.Credits
	profile.Level = req.Level
	profile.DefaultTeachingHours = req.DefaultTeachingHours
	profile.DefaultMarkingHours = req.DefaultMarkingHours
	profile.ModuleLeader = normalizeOptional(req.ModuleLeader)
	if req.Active != nil {
		profile.IsActive = *req.Active
	}
}

// moduleFiguresProblem returns the first violated numeric rule of a module profile, or "".
func moduleFiguresProblem(credits, level int, teaching, marking float64) string {
	switch {
	case credits <= 0:
		return "Credits must be greater than zero"
	case level < 0 || level > 10:
		return "Level must be between 0 and 10"
	case teaching < 0:
		return "Teaching hours cannot be negative"
	case marking < 0:
		return "Marking hours cannot be negative"
	}
	return ""
}

func newModuleInstance(organisationID, profileID, academicYearID string) *models.Module {
	return &models.Module{
		OrganisationID: organisationID,
		ProfileID:      profileID,
		AcademicYearID: academicYearID,
		Status:         models.ModuleStatusActive,
		IsActive:       true,
	}
}
