package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
)

type adminAllocationRepository interface {
	ListByLecturer(ctx context.Context, organisationID, lecturerID string) ([]models.AdminAllocation, error)
	ReplaceForLecturer(ctx context.Context, organisationID, lecturerID string, entries []models.AdminAllocation, adminHours float64) error
}

type lecturerReader interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.Lecturer, error)
}

type lecturerProfileReader interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.LecturerProfile, error)
}

// AdminAllocationEntry is one edited row of a lecturer's admin allocation sheet.
type AdminAllocationEntry struct {
	Category    string   `json:"category" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=500"`
	Hours       *float64 `json:"hours"`
	IsHeader    bool     `json:"is_header"`
}

// SaveAdminAllocationsRequest replaces the full entry list of a lecturer.
type SaveAdminAllocationsRequest struct {
	Entries []AdminAllocationEntry `json:"entries" validate:"dive"`
}

// AdminAllocationService validates and applies edits to admin-hour allocations.
type AdminAllocationService struct {
	allocations adminAllocationRepository
	lecturers   lecturerReader
	profiles    lecturerProfileReader
	audit       *AuditRecorder
	cache       CacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdminAllocationService constructs the service.
func NewAdminAllocationService(allocations adminAllocationRepository, lecturers lecturerReader, profiles lecturerProfileReader, audit *AuditRecorder, cache CacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdminAllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAllocationService{
		allocations: allocations,
		lecturers:   lecturers,
		profiles:    profiles,
		audit:       audit,
		cache:       invalidatorOrNoop(cache),
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the stored entries of a lecturer.
func (s *AdminAllocationService) List(ctx context.Context, actor models.Actor, lecturerID string) ([]models.AdminAllocation, error) {
	if _, err := s.loadLecturer(ctx, actor, lecturerID); err != nil {
		return nil, err
	}
	entries, err := s.allocations.ListByLecturer(ctx, actor.OrganisationID, lecturerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin allocations")
	}
	return entries, nil
}

// Preview evaluates an edit without saving it.
func (s *AdminAllocationService) Preview(ctx context.Context, actor models.Actor, lecturerID string, req SaveAdminAllocationsRequest) (*AllocationCheck, error) {
	check, _, err := s.evaluate(ctx, actor, lecturerID, req)
	if err != nil {
		return nil, err
	}
	return check, nil
}

// Save validates an edit and replaces the stored entries. Rejected edits persist nothing
// and leave no audit entry.
func (s *AdminAllocationService) Save(ctx context.Context, actor models.Actor, lecturerID string, req SaveAdminAllocationsRequest) (*AllocationCheck, error) {
	check, edited, err := s.evaluate(ctx, actor, lecturerID, req)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrValidation) {
			s.metrics.RecordAllocationSave("invalid")
		}
		return nil, err
	}
	if !check.Admissible {
		s.metrics.RecordAllocationSave("rejected")
		return check, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("Allocation exceeds available capacity by %.2f hours", -check.Remaining))
	}

	if err := s.allocations.ReplaceForLecturer(ctx, actor.OrganisationID, lecturerID, edited, check.EditedTotal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save admin allocations")
	}

	s.metrics.RecordAllocationSave("saved")
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionAdminAllocationUpdate, models.EntityLecturer, lecturerID, map[string]interface{}{
		"original_total": check.OriginalTotal,
		"edited_total":   check.EditedTotal,
		"delta":          check.Delta,
		"entries":        len(edited),
	})
	logger.WithContext(ctx, s.logger).Info("admin allocations saved",
		zap.String("organisation_id", actor.OrganisationID),
		zap.String("lecturer_id", lecturerID),
		zap.Float64("delta", check.Delta),
	)
	return check, nil
}

func (s *AdminAllocationService) evaluate(ctx context.Context, actor models.Actor, lecturerID string, req SaveAdminAllocationsRequest) (*AllocationCheck, []models.AdminAllocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin allocation payload")
	}

	edited := make([]models.AdminAllocation, len(req.Entries))
	for i, entry := range req.Entries {
		edited[i] = models.AdminAllocation{
			Category:    strings.TrimSpace(entry.Category),
			Description: strings.TrimSpace(entry.Description),
			Hours:       entry.Hours,
			IsHeader:    entry.IsHeader,
		}
		if entry.IsHeader {
			edited[i].Hours = nil
		}
	}
	if err := ValidateAllocationEntries(edited); err != nil {
		return nil, nil, err
	}

	lecturer, err := s.loadLecturer(ctx, actor, lecturerID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profiles.FindByID(ctx, actor.OrganisationID, lecturer.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer profile")
	}

	original, err := s.allocations.ListByLecturer(ctx, actor.OrganisationID, lecturerID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin allocations")
	}

	check := CheckAllocationEdit(original, edited, AvailableHours(profile.TotalContract, lecturer.TotalAllocated))
	return &check, edited, nil
}

func (s *AdminAllocationService) loadLecturer(ctx context.Context, actor models.Actor, lecturerID string) (*models.Lecturer, error) {
	lecturer, err := s.lecturers.FindByID(ctx, actor.OrganisationID, lecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// AvailableHours is the contract headroom left after everything already allocated.
func AvailableHours(totalContract, totalAllocated float64) float64 {
	return totalContract - totalAllocated
}
