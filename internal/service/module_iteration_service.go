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
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
)

type moduleIterationRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.ModuleIteration, error)
	ListByYear(ctx context.Context, organisationID, academicYearID string) ([]models.ModuleIteration, error)
	Create(ctx context.Context, iteration *models.ModuleIteration) error
	AssignLecturer(ctx context.Context, organisationID, id string, lecturerIDs []string, status models.AssignmentStatus, allocation *models.ModuleAllocation) error
	UnassignLecturer(ctx context.Context, organisationID, id string, lecturerIDs []string, status models.AssignmentStatus, lecturerID string) (*models.ModuleAllocation, error)
	UpdateStatus(ctx context.Context, organisationID, id string, status models.AssignmentStatus) error
	SoftDelete(ctx context.Context, organisationID, id string) error
}

type moduleAllocationRepository interface {
	ListByIteration(ctx context.Context, organisationID, iterationID string) ([]models.ModuleAllocation, error)
}

type moduleReader interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.Module, error)
}

type moduleProfileReader interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.ModuleProfile, error)
}

// AssignmentRequest identifies a lecturer/iteration pair and the caller's edit session.
type AssignmentRequest struct {
	LecturerID string `json:"lecturer_id" validate:"required"`
	SessionID  string `json:"-"`
}

// CreateIterationRequest creates a semester delivery of a module.
type CreateIterationRequest struct {
	ModuleID string `json:"module_id" validate:"required"`
	Semester string `json:"semester" validate:"required,max=50"`
}

// SetIterationStatusRequest sets a workflow status.
type SetIterationStatusRequest struct {
	Status models.AssignmentStatus `json:"status" validate:"required"`
}

// ModuleIterationService runs the assignment state machine of module iterations.
type ModuleIterationService struct {
	iterations  moduleIterationRepository
	allocations moduleAllocationRepository
	modules     moduleReader
	profiles    moduleProfileReader
	lecturers   lecturerReader
	sessions    *EditSessions
	audit       *AuditRecorder
	cache       CacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// ModuleIterationDeps groups the collaborators of ModuleIterationService.
type ModuleIterationDeps struct {
	Iterations  moduleIterationRepository
	Allocations moduleAllocationRepository
	Modules     moduleReader
	Profiles    moduleProfileReader
	Lecturers   lecturerReader
	Sessions    *EditSessions
	Audit       *AuditRecorder
	Cache       CacheInvalidator
	Metrics     *MetricsService
}

// NewModuleIterationService constructs the service.
func NewModuleIterationService(deps ModuleIterationDeps, validate *validator.Validate, logger *zap.Logger) *ModuleIterationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = NewEditSessions()
	}
	return &ModuleIterationService{
		iterations:  deps.Iterations,
		allocations: deps.Allocations,
		modules:     deps.Modules,
		profiles:    deps.Profiles,
		lecturers:   deps.Lecturers,
		sessions:    deps.Sessions,
		audit:       deps.Audit,
		cache:       invalidatorOrNoop(deps.Cache),
		metrics:     deps.Metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Get returns a live iteration.
func (s *ModuleIterationService) Get(ctx context.Context, actor models.Actor, id string) (*models.ModuleIteration, error) {
	iteration, err := s.iterations.FindByID(ctx, actor.OrganisationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module iteration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module iteration")
	}
	return iteration, nil
}

// ListByYear returns the live iterations of an academic year.
func (s *ModuleIterationService) ListByYear(ctx context.Context, actor models.Actor, academicYearID string) ([]models.ModuleIteration, error) {
	iterations, err := s.iterations.ListByYear(ctx, actor.OrganisationID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list module iterations")
	}
	return iterations, nil
}

// Allocations returns the allocation records of an iteration.
func (s *ModuleIterationService) Allocations(ctx context.Context, actor models.Actor, id string) ([]models.ModuleAllocation, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	allocations, err := s.allocations.ListByIteration(ctx, actor.OrganisationID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list module allocations")
	}
	return allocations, nil
}

// Create adds an unassigned iteration for a live module.
func (s *ModuleIterationService) Create(ctx context.Context, actor models.Actor, req CreateIterationRequest) (*models.ModuleIteration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module iteration payload")
	}
	module, err := s.loadModule(ctx, actor, req.ModuleID)
	if err != nil {
		return nil, err
	}

	iteration := &models.ModuleIteration{
		OrganisationID: actor.OrganisationID,
		ModuleID:       module.ID,
		AcademicYearID: module.AcademicYearID,
		Semester:       strings.TrimSpace(req.Semester),
		AssignedStatus: models.AssignmentStatusUnassigned,
	}
	if err := s.iterations.Create(ctx, iteration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module iteration")
	}
	s.audit.Record(ctx, actor, models.AuditActionIterationCreate, models.EntityModuleIteration, iteration.ID, map[string]string{
		"module_id": module.ID,
		"semester":  iteration.Semester,
	})
	return iteration, nil
}

// Delete soft-deletes an iteration.
func (s *ModuleIterationService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := s.iterations.SoftDelete(ctx, actor.OrganisationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module iteration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module iteration")
	}
	s.audit.Record(ctx, actor, models.AuditActionIterationDelete, models.EntityModuleIteration, id, nil)
	return nil
}

// Assign appends a lecturer to the iteration and seeds an allocation from the module
// profile defaults. Assigning a lecturer already present is not rejected.
func (s *ModuleIterationService) Assign(ctx context.Context, actor models.Actor, iterationID string, req AssignmentRequest) (*models.ModuleIteration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	iteration, err := s.Get(ctx, actor, iterationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.lecturers.FindByID(ctx, actor.OrganisationID, req.LecturerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	module, err := s.loadModule(ctx, actor, iteration.ModuleID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByID(ctx, actor.OrganisationID, module.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module profile")
	}

	ids := append(append([]string{}, iteration.AssignedLecturerIDs...), req.LecturerID)
	status := models.DeriveAssignmentStatus(ids)
	allocation := &models.ModuleAllocation{
		OrganisationID:    actor.OrganisationID,
		ModuleIterationID: iteration.ID,
		LecturerID:        req.LecturerID,
		TeachingHours:     profile.DefaultTeachingHours,
		MarkingHours:      profile.DefaultMarkingHours,
	}
	if err := s.iterations.AssignLecturer(ctx, actor.OrganisationID, iteration.ID, ids, status, allocation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module iteration or lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign lecturer")
	}
	iteration.AssignedLecturerIDs = ids
	iteration.AssignedStatus = status

	s.afterAssignmentChange(ctx, actor, iteration.ID, req.SessionID, "assign")
	s.audit.Record(ctx, actor, models.AuditActionLecturerAssign, models.EntityModuleIteration, iteration.ID, map[string]interface{}{
		"lecturer_id":    req.LecturerID,
		"allocation_id":  allocation.ID,
		"teaching_hours": allocation.TeachingHours,
		"marking_hours":  allocation.MarkingHours,
	})
	return iteration, nil
}

// Unassign removes a lecturer from the iteration and deletes its first matching
// allocation. A lecturer that is not assigned, or has no allocation, is not an error.
func (s *ModuleIterationService) Unassign(ctx context.Context, actor models.Actor, iterationID string, req AssignmentRequest) (*models.ModuleIteration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	iteration, err := s.Get(ctx, actor, iterationID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(iteration.AssignedLecturerIDs))
	for _, id := range iteration.AssignedLecturerIDs {
		if id != req.LecturerID {
			ids = append(ids, id)
		}
	}
	status := models.DeriveAssignmentStatus(ids)
	removed, err := s.iterations.UnassignLecturer(ctx, actor.OrganisationID, iteration.ID, ids, status, req.LecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module iteration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign lecturer")
	}
	iteration.AssignedLecturerIDs = ids
	iteration.AssignedStatus = status

	s.afterAssignmentChange(ctx, actor, iteration.ID, req.SessionID, "unassign")
	changes := map[string]interface{}{"lecturer_id": req.LecturerID}
	if removed != nil {
		changes["allocation_id"] = removed.ID
	}
	s.audit.Record(ctx, actor, models.AuditActionLecturerUnassign, models.EntityModuleIteration, iteration.ID, changes)
	return iteration, nil
}

// SetStatus sets one of the workflow statuses. Derived statuses cannot be set directly.
func (s *ModuleIterationService) SetStatus(ctx context.Context, actor models.Actor, iterationID string, req SetIterationStatusRequest) (*models.ModuleIteration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.IsWorkflow() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Status must be one of pending, in-progress, completed")
	}
	iteration, err := s.Get(ctx, actor, iterationID)
	if err != nil {
		return nil, err
	}
	if err := s.iterations.UpdateStatus(ctx, actor.OrganisationID, iteration.ID, req.Status); err != nil {
		return nil, s.assignmentWriteError(err)
	}
	previous := iteration.AssignedStatus
	iteration.AssignedStatus = req.Status
	s.audit.Record(ctx, actor, models.AuditActionIterationStatus, models.EntityModuleIteration, iteration.ID, map[string]string{
		"from": string(previous),
		"to":   string(req.Status),
	})
	return iteration, nil
}

// Pending lists iterations changed in session since its last flush.
func (s *ModuleIterationService) Pending(session string) []string {
	return s.sessions.Pending(session)
}

// Flush ends a batch of edits. Every change is already persisted, so it only reports
// and clears the pending set.
func (s *ModuleIterationService) Flush(session string) []string {
	return s.sessions.Flush(session)
}

func (s *ModuleIterationService) afterAssignmentChange(ctx context.Context, actor models.Actor, iterationID, session, action string) {
	s.sessions.Mark(session, iterationID)
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.metrics.RecordAssignmentChange(action)
	logger.WithContext(ctx, s.logger).Info("module iteration assignment changed",
		zap.String("organisation_id", actor.OrganisationID),
		zap.String("iteration_id", iterationID),
		zap.String("action", action),
	)
}

func (s *ModuleIterationService) loadModule(ctx context.Context, actor models.Actor, moduleID string) (*models.Module, error) {
	module, err := s.modules.FindByID(ctx, actor.OrganisationID, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return module, nil
}

func (s *ModuleIterationService) assignmentWriteError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "module iteration not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module iteration")
}
