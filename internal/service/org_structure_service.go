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

type orgUnitRepository interface {
	FindFaculty(ctx context.Context, organisationID, id string) (*models.Faculty, error)
	ListFaculties(ctx context.Context, organisationID string) ([]models.Faculty, error)
	FacultyCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error)
	SaveFaculty(ctx context.Context, faculty *models.Faculty) error
	DeleteFaculty(ctx context.Context, organisationID, id string) error
	FindDepartment(ctx context.Context, organisationID, id string) (*models.Department, error)
	ListDepartments(ctx context.Context, organisationID, facultyID string) ([]models.Department, error)
	DepartmentCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error)
	SaveDepartment(ctx context.Context, department *models.Department) error
	DeleteDepartment(ctx context.Context, organisationID, id string) error
}

// FacultyRequest is the payload for creating or updating a faculty.
type FacultyRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=255"`
}

// DepartmentRequest is the payload for creating or updating a department.
type DepartmentRequest struct {
	FacultyID *string `json:"faculty_id"`
	Code      string  `json:"code" validate:"required,max=20"`
	Name      string  `json:"name" validate:"required,max=255"`
}

// OrgStructureService manages faculties and departments.
type OrgStructureService struct {
	repo      orgUnitRepository
	audit     *AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrgStructureService constructs the service.
func NewOrgStructureService(repo orgUnitRepository, audit *AuditRecorder, validate *validator.Validate, logger *zap.Logger) *OrgStructureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrgStructureService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListFaculties returns live faculties.
func (s *OrgStructureService) ListFaculties(ctx context.Context, actor models.Actor) ([]models.Faculty, error) {
	faculties, err := s.repo.ListFaculties(ctx, actor.OrganisationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculties")
	}
	return faculties, nil
}

// CreateFaculty stores a faculty with a code unique among live faculties.
func (s *OrgStructureService) CreateFaculty(ctx context.Context, actor models.Actor, req FacultyRequest) (*models.Faculty, error) {
	return s.saveFaculty(ctx, actor, &models.Faculty{OrganisationID: actor.OrganisationID}, req, models.AuditActionFacultyCreate)
}

// UpdateFaculty renames or recodes a faculty. Keeping its own code is allowed.
func (s *OrgStructureService) UpdateFaculty(ctx context.Context, actor models.Actor, id string, req FacultyRequest) (*models.Faculty, error) {
	faculty, err := s.findFaculty(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.saveFaculty(ctx, actor, faculty, req, models.AuditActionFacultyUpdate)
}

// DeleteFaculty soft-deletes a faculty.
func (s *OrgStructureService) DeleteFaculty(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.DeleteFaculty(ctx, actor.OrganisationID, id); err != nil {
		return orgUnitError(err, "faculty", "delete")
	}
	s.audit.Record(ctx, actor, models.AuditActionFacultyDelete, models.EntityFaculty, id, nil)
	return nil
}

// ListDepartments returns live departments, optionally for one faculty.
func (s *OrgStructureService) ListDepartments(ctx context.Context, actor models.Actor, facultyID string) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx, actor.OrganisationID, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// CreateDepartment stores a department. A referenced faculty must be live.
func (s *OrgStructureService) CreateDepartment(ctx context.Context, actor models.Actor, req DepartmentRequest) (*models.Department, error) {
	return s.saveDepartment(ctx, actor, &models.Department{OrganisationID: actor.OrganisationID}, req, models.AuditActionDepartmentCreate)
}

// UpdateDepartment modifies a department.
func (s *OrgStructureService) UpdateDepartment(ctx context.Context, actor models.Actor, id string, req DepartmentRequest) (*models.Department, error) {
	department, err := s.repo.FindDepartment(ctx, actor.OrganisationID, id)
	if err != nil {
		return nil, orgUnitError(err, "department", "load")
	}
	return s.saveDepartment(ctx, actor, department, req, models.AuditActionDepartmentUpdate)
}

// DeleteDepartment soft-deletes a department.
func (s *OrgStructureService) DeleteDepartment(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.DeleteDepartment(ctx, actor.OrganisationID, id); err != nil {
		return orgUnitError(err, "department", "delete")
	}
	s.audit.Record(ctx, actor, models.AuditActionDepartmentDelete, models.EntityDepartment, id, nil)
	return nil
}

func (s *OrgStructureService) findFaculty(ctx context.Context, actor models.Actor, id string) (*models.Faculty, error) {
	faculty, err := s.repo.FindFaculty(ctx, actor.OrganisationID, id)
	if err != nil {
		return nil, orgUnitError(err, "faculty", "load")
	}
	return faculty, nil
}

func (s *OrgStructureService) saveFaculty(ctx context.Context, actor models.Actor, faculty *models.Faculty, req FacultyRequest, action string) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.FacultyCodeExists(ctx, actor.OrganisationID, code, faculty.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check faculty code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Faculty code already exists")
	}

	faculty.Code = code
	faculty.Name = strings.TrimSpace(req.Name)
	if err := s.repo.SaveFaculty(ctx, faculty); err != nil {
		return nil, orgUnitError(err, "faculty", "save")
	}
	s.audit.Record(ctx, actor, action, models.EntityFaculty, faculty.ID, faculty)
	return faculty, nil
}

func (s *OrgStructureService) saveDepartment(ctx context.Context, actor models.Actor, department *models.Department, req DepartmentRequest, action string) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	facultyID := normalizeOptional(req.FacultyID)
	if facultyID != nil {
		if _, err := s.findFaculty(ctx, actor, *facultyID); err != nil {
			return nil, err
		}
	}
	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.DepartmentCodeExists(ctx, actor.OrganisationID, code, department.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Department code already exists")
	}

	department.FacultyID = facultyID
	department.Code = code
	department.Name = strings.TrimSpace(req.Name)
	if err := s.repo.SaveDepartment(ctx, department); err != nil {
		return nil, orgUnitError(err, "department", "save")
	}
	s.audit.Record(ctx, actor, action, models.EntityDepartment, department.ID, department)
	return department, nil
}

func orgUnitError(err error, what, verb string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+verb+" "+what)
}
