package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
)

type moduleImportRepository interface {
	moduleProfileRepository
	CreateWithInstance(ctx context.Context, profile *models.ModuleProfile, module *models.Module) error
}

type lecturerProfileLister interface {
	ListActive(ctx context.Context, organisationID string) ([]models.LecturerProfile, error)
}

type lecturerYearWriter interface {
	ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
}

// BulkModuleRow is one row of a module import.
type BulkModuleRow struct {
	Code          string  `json:"code"`
	Title         string  `json:"title"`
	Credits       int     `json:"credits"`
	Level         int     `json:"level"`
	TeachingHours float64 `json:"teaching_hours"`
	MarkingHours  float64 `json:"marking_hours"`
	ModuleLeader  *string `json:"module_leader"`
}

// BulkImportRequest creates a profile and a year instance for each row.
type BulkImportRequest struct {
	AcademicYearID string          `json:"academic_year_id" validate:"required"`
	Rows           []BulkModuleRow `json:"rows" validate:"required,min=1,max=1000"`
}

// RolloverRequest targets an academic year.
type RolloverRequest struct {
	AcademicYearID string `json:"academic_year_id" validate:"required"`
}

// BatchPolicies selects audit granularity per batch path.
type BatchPolicies struct {
	BulkImport AuditPolicy
	Rollover   AuditPolicy
}

// BatchDeps groups the collaborators of BatchService.
type BatchDeps struct {
	ModuleProfiles   moduleImportRepository
	Modules          moduleRepository
	LecturerProfiles lecturerProfileLister
	Lecturers        lecturerYearWriter
	Years            academicYearReader
	Audit            *AuditRecorder
	Cache            CacheInvalidator
	Metrics          *MetricsService
	Policies         BatchPolicies
}

// BatchService runs bulk imports and year rollovers. Rows are independent: a failing
// row is reported in its result and never stops the batch, and committed rows stay
// committed. Each import row commits its profile and year instance together.
type BatchService struct {
	moduleProfiles   moduleImportRepository
	modules          moduleRepository
	lecturerProfiles lecturerProfileLister
	lecturers        lecturerYearWriter
	years            academicYearReader
	audit            *AuditRecorder
	cache            CacheInvalidator
	metrics          *MetricsService
	policies         BatchPolicies
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewBatchService constructs the service.
func NewBatchService(deps BatchDeps, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policies := deps.Policies
	if policies.BulkImport == "" {
		policies.BulkImport = AuditPolicyBatch
	}
	if policies.Rollover == "" {
		policies.Rollover = AuditPolicyNone
	}
	return &BatchService{
		moduleProfiles:   deps.ModuleProfiles,
		modules:          deps.Modules,
		lecturerProfiles: deps.LecturerProfiles,
		lecturers:        deps.Lecturers,
		years:            deps.Years,
		audit:            deps.Audit,
		cache:            invalidatorOrNoop(deps.Cache),
		metrics:          deps.Metrics,
		policies:         policies,
		validator:        validate,
		logger:           logger,
	}
}

// ImportModules creates a module profile and its year instance per row.
func (s *BatchService) ImportModules(ctx context.Context, actor models.Actor, req BulkImportRequest) ([]models.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk import payload")
	}
	if err := requireAcademicYear(ctx, s.years, actor, req.AcademicYearID); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]models.BulkResult, 0, len(req.Rows))
	for _, row := range req.Rows {
		results = append(results, s.importRow(ctx, actor, req.AcademicYearID, row))
	}

	s.finishBatch(ctx, actor, "bulk_import", s.policies.BulkImport, models.AuditActionModuleBulkImport, req.AcademicYearID, models.EntityModuleProfile, results)
	return results, nil
}

func (s *BatchService) importRow(ctx context.Context, actor models.Actor, academicYearID string, row BulkModuleRow) models.BulkResult {
	code := strings.TrimSpace(row.Code)
	result := models.BulkResult{Code: code}

	if code == "" {
		result.Error = "Module code is required"
		return result
	}
	if strings.TrimSpace(row.Title) == "" {
		result.Error = "Module title is required"
		return result
	}
	if msg := moduleFiguresProblem(row.Credits, row.Level, row.TeachingHours, row.MarkingHours); msg != "" {
		result.Error = msg
		return result
	}
	exists, err := s.moduleProfiles.ExistsByCode(ctx, actor.OrganisationID, code, "")
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if exists {
		result.Error = MessageModuleCodeExists
		return result
	}

	profile := &models.ModuleProfile{
		OrganisationID:       actor.OrganisationID,
		Code:                 code,
		Title:                strings.TrimSpace(row.Title),
		Credits:              row.Credits,
		Level:                row.Level,
		DefaultTeachingHours: row.TeachingHours,
		DefaultMarkingHours:  row.MarkingHours,
		ModuleLeader:         normalizeOptional(row.ModuleLeader),
		IsActive:             true,
	}
	if err := s.moduleProfiles.CreateWithInstance(ctx, profile, newModuleInstance(actor.OrganisationID, "", academicYearID)); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.ID = profile.ID
	return result
}

// RolloverModules instantiates every active module profile into the target year,
// skipping profiles already offered there.
func (s *BatchService) RolloverModules(ctx context.Context, actor models.Actor, req RolloverRequest) ([]models.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rollover payload")
	}
	if err := requireAcademicYear(ctx, s.years, actor, req.AcademicYearID); err != nil {
		return nil, err
	}
	profiles, err := s.moduleProfiles.ListActive(ctx, actor.OrganisationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list module profiles")
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]models.BulkResult, 0, len(profiles))
	for _, profile := range profiles {
		result := models.BulkResult{Code: profile.Code}
		exists, err := s.modules.ExistsForYear(ctx, actor.OrganisationID, profile.ID, req.AcademicYearID)
		switch {
		case err != nil:
			result.Error = err.Error()
		case exists:
			result.Error = MessageAlreadyInYear
		default:
			module := newModuleInstance(actor.OrganisationID, profile.ID, req.AcademicYearID)
			if err := s.modules.Create(ctx, module); err != nil {
				result.Error = err.Error()
			} else {
				result.Success = true
				result.ID = module.ID
			}
		}
		results = append(results, result)
	}

	s.finishBatch(ctx, actor, "module_rollover", s.policies.Rollover, models.AuditActionModuleRollover, req.AcademicYearID, models.EntityModule, results)
	return results, nil
}

// RolloverLecturers creates a year instance for every active lecturer profile not yet
// present in the target year. Results are keyed by profile email.
func (s *BatchService) RolloverLecturers(ctx context.Context, actor models.Actor, req RolloverRequest) ([]models.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rollover payload")
	}
	if err := requireAcademicYear(ctx, s.years, actor, req.AcademicYearID); err != nil {
		return nil, err
	}
	profiles, err := s.lecturerProfiles.ListActive(ctx, actor.OrganisationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturer profiles")
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]models.BulkResult, 0, len(profiles))
	for _, profile := range profiles {
		result := models.BulkResult{Code: profile.Email}
		exists, err := s.lecturers.ExistsForYear(ctx, actor.OrganisationID, profile.ID, req.AcademicYearID)
		switch {
		case err != nil:
			result.Error = err.Error()
		case exists:
			result.Error = MessageAlreadyInYear
		default:
			lecturer := newLecturerInstance(actor.OrganisationID, profile, req.AcademicYearID)
			if err := s.lecturers.Create(ctx, lecturer); err != nil {
				result.Error = err.Error()
			} else {
				result.Success = true
				result.ID = lecturer.ID
			}
		}
		results = append(results, result)
	}

	s.finishBatch(ctx, actor, "lecturer_rollover", s.policies.Rollover, models.AuditActionLecturerRollover, req.AcademicYearID, models.EntityLecturer, results)
	return results, nil
}

func (s *BatchService) finishBatch(ctx context.Context, actor models.Actor, operation string, policy AuditPolicy, action, academicYearID, itemEntity string, results []models.BulkResult) {
	summary := models.SummarizeResults(results)
	if summary.Successful > 0 {
		s.cache.Invalidate(ctx, actor.OrganisationID)
	}
	s.metrics.RecordBatch(operation, results)
	s.audit.RecordBatch(ctx, actor, policy, action, BatchTarget{
		EntityType:     models.EntityAcademicYear,
		EntityID:       academicYearID,
		ItemEntityType: itemEntity,
	}, results)
	logger.WithContext(ctx, s.logger).Info("batch finished",
		zap.String("operation", operation),
		zap.String("organisation_id", actor.OrganisationID),
		zap.String("academic_year_id", academicYearID),
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
	)
}

func newLecturerInstance(organisationID string, profile models.LecturerProfile, academicYearID string) *models.Lecturer {
	return &models.Lecturer{
		OrganisationID:       organisationID,
		ProfileID:            profile.ID,
		AcademicYearID:       academicYearID,
		TeachingAvailability: profile.MaxTeachingHours,
		Status:               models.LecturerStatusActive,
	}
}
