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

type lecturerProfileRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.LecturerProfile, error)
	List(ctx context.Context, organisationID string, filter models.LecturerProfileFilter) ([]models.LecturerProfile, int, error)
	ExistsByEmail(ctx context.Context, organisationID, email, excludeID string) (bool, error)
	Create(ctx context.Context, profile *models.LecturerProfile) error
	Update(ctx context.Context, profile *models.LecturerProfile) error
	Deactivate(ctx context.Context, organisationID, id string) error
}

type lecturerRepository interface {
	FindByID(ctx context.Context, organisationID, id string) (*models.Lecturer, error)
	ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	UpdateHours(ctx context.Context, lecturer *models.Lecturer) error
	SoftDelete(ctx context.Context, organisationID, id string) error
}

// LecturerProfileRequest is the payload for creating or updating a lecturer profile.
type LecturerProfileRequest struct {
	FullName         string  `json:"full_name" validate:"required,max=255"`
	Email            string  `json:"email" validate:"required,email"`
	Family           string  `json:"family" validate:"max=120"`
	FTE              float64 `json:"fte" validate:"gte=0,lte=1"`
	Capacity         float64 `json:"capacity" validate:"gte=0"`
	MaxTeachingHours float64 `json:"max_teaching_hours" validate:"gte=0"`
	TotalContract    float64 `json:"total_contract" validate:"gte=0"`
	Active           *bool   `json:"active"`
}

// AddLecturerToYearRequest creates a lecturer year instance.
type AddLecturerToYearRequest struct {
	ProfileID      string  `json:"profile_id" validate:"required"`
	AcademicYearID string  `json:"academic_year_id" validate:"required"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateLecturerHoursRequest patches category hours. Omitted categories are kept. Admin
// hours are owned by the admin allocation sheet and cannot be set here.
type UpdateLecturerHoursRequest struct {
	TeachingAvailability *float64 `json:"teaching_availability" validate:"omitempty,gte=0"`
	TeachingHours        *float64 `json:"allocated_teaching_hours" validate:"omitempty,gte=0"`
	ResearchHours        *float64 `json:"allocated_research_hours" validate:"omitempty,gte=0"`
	OtherHours           *float64 `json:"allocated_other_hours" validate:"omitempty,gte=0"`
	Status               *string  `json:"status" validate:"omitempty,max=50"`
	Notes                *string  `json:"notes" validate:"omitempty,max=1000"`
}

// LecturerService manages lecturer profiles and their year instances.
type LecturerService struct {
	profiles  lecturerProfileRepository
	lecturers lecturerRepository
	years     academicYearReader
	audit     *AuditRecorder
	cache     CacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs the service.
func NewLecturerService(profiles lecturerProfileRepository, lecturers lecturerRepository, years academicYearReader, audit *AuditRecorder, cache CacheInvalidator, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{profiles: profiles, lecturers: lecturers, years: years, audit: audit, cache: invalidatorOrNoop(cache), validator: validate, logger: logger}
}

// ListProfiles returns profiles plus pagination data.
func (s *LecturerService) ListProfiles(ctx context.Context, actor models.Actor, filter models.LecturerProfileFilter) ([]models.LecturerProfile, *models.Pagination, error) {
	profiles, total, err := s.profiles.List(ctx, actor.OrganisationID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturer profiles")
	}
	return profiles, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetProfile returns a profile by id.
func (s *LecturerService) GetProfile(ctx context.Context, actor models.Actor, id string) (*models.LecturerProfile, error) {
	profile, err := s.profiles.FindByID(ctx, actor.OrganisationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer profile")
	}
	return profile, nil
}

// CreateProfile registers a lecturer profile with an email unique among active profiles.
func (s *LecturerService) CreateProfile(ctx context.Context, actor models.Actor, req LecturerProfileRequest) (*models.LecturerProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer profile payload")
	}
	if err := s.ensureUniqueEmail(ctx, actor, req.Email, ""); err != nil {
		return nil, err
	}

	profile := &models.LecturerProfile{OrganisationID: actor.OrganisationID, IsActive: true}
	applyLecturerProfile(profile, req)
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionLecturerProfileCreate, models.EntityLecturerProfile, profile.ID, profile)
	return profile, nil
}

// UpdateProfile modifies contract terms.
func (s *LecturerService) UpdateProfile(ctx context.Context, actor models.Actor, id string, req LecturerProfileRequest) (*models.LecturerProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer profile payload")
	}
	profile, err := s.GetProfile(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, actor, req.Email, profile.ID); err != nil {
		return nil, err
	}

	applyLecturerProfile(profile, req)
	if err := s.profiles.Update(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer profile")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionLecturerProfileUpdate, models.EntityLecturerProfile, profile.ID, profile)
	return profile, nil
}

// DeactivateProfile soft-deletes a profile.
func (s *LecturerService) DeactivateProfile(ctx context.Context, actor models.Actor, id string) error {
	if err := s.profiles.Deactivate(ctx, actor.OrganisationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecturer profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate lecturer profile")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionLecturerProfileDelete, models.EntityLecturerProfile, id, nil)
	return nil
}

// Get returns a live lecturer year instance.
func (s *LecturerService) Get(ctx context.Context, actor models.Actor, id string) (*models.Lecturer, error) {
	lecturer, err := s.lecturers.FindByID(ctx, actor.OrganisationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// AddToYear creates the year instance of a profile, at most once per (profile, year).
func (s *LecturerService) AddToYear(ctx context.Context, actor models.Actor, req AddLecturerToYearRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}
	profile, err := s.GetProfile(ctx, actor, req.ProfileID)
	if err != nil {
		return nil, err
	}
	if !profile.IsLive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Lecturer profile is inactive")
	}
	if err := requireAcademicYear(ctx, s.years, actor, req.AcademicYearID); err != nil {
		return nil, err
	}
	exists, err := s.lecturers.ExistsForYear(ctx, actor.OrganisationID, profile.ID, req.AcademicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, MessageAlreadyInYear)
	}

	lecturer := newLecturerInstance(actor.OrganisationID, *profile, req.AcademicYearID)
	lecturer.Notes = normalizeOptional(req.Notes)
	if err := s.lecturers.Create(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionLecturerCreate, models.EntityLecturer, lecturer.ID, lecturer)
	return lecturer, nil
}

// UpdateHours patches category hours; the total is recomputed from the categories.
func (s *LecturerService) UpdateHours(ctx context.Context, actor models.Actor, id string, req UpdateLecturerHoursRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer hours payload")
	}
	lecturer, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	before := lecturer.TotalAllocated

	setIf(&lecturer.TeachingAvailability, req.TeachingAvailability)
	setIf(&lecturer.AllocatedTeachingHours, req.TeachingHours)
	setIf(&lecturer.AllocatedResearchHours, req.ResearchHours)
	setIf(&lecturer.AllocatedOtherHours, req.OtherHours)
	if req.Status != nil {
		lecturer.Status = strings.TrimSpace(*req.Status)
	}
	if req.Notes != nil {
		lecturer.Notes = normalizeOptional(req.Notes)
	}

	if err := s.lecturers.UpdateHours(ctx, lecturer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer hours")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionLecturerHoursUpdate, models.EntityLecturer, lecturer.ID, map[string]float64{
		"total_before": before,
		"total_after":  lecturer.TotalAllocated,
	})
	return lecturer, nil
}

// Delete soft-deletes a lecturer year instance.
func (s *LecturerService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := s.lecturers.SoftDelete(ctx, actor.OrganisationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecturer")
	}
	s.cache.Invalidate(ctx, actor.OrganisationID)
	s.audit.Record(ctx, actor, models.AuditActionLecturerDelete, models.EntityLecturer, id, nil)
	return nil
}

func (s *LecturerService) ensureUniqueEmail(ctx context.Context, actor models.Actor, email, excludeID string) error {
	exists, err := s.profiles.ExistsByEmail(ctx, actor.OrganisationID, strings.TrimSpace(email), excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "Lecturer email already exists")
	}
	return nil
}

func applyLecturerProfile(profile *models.LecturerProfile, req LecturerProfileRequest) {
	profile.FullName = strings.TrimSpace(req.FullName)
	profile.Email = strings.TrimSpace(req.Email)
	profile.Family = strings.TrimSpace(req.Family)
	profile.FTE = req.FTE
	profile.Capacity = req.Capacity
	profile.MaxTeachingHours = req.MaxTeachingHours
	profile.TotalContract = req.TotalContract
	if req.Active != nil {
		profile.IsActive = *req.Active
	}
}

func setIf(dst *float64, value *float64) {
	if value != nil {
		*dst = *value
	}
}
