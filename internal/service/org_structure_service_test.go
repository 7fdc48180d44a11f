package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type memOrgUnitRepo struct {
	faculties   map[string]*models.Faculty
	departments map[string]*models.Department
	nextID      int
}

func newMemOrgUnitRepo() *memOrgUnitRepo {
	return &memOrgUnitRepo{faculties: map[string]*models.Faculty{}, departments: map[string]*models.Department{}}
}

func (m *memOrgUnitRepo) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memOrgUnitRepo) FindFaculty(ctx context.Context, organisationID, id string) (*models.Faculty, error) {
	if f, ok := m.faculties[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memOrgUnitRepo) ListFaculties(ctx context.Context, organisationID string) ([]models.Faculty, error) {
	var out []models.Faculty
	for _, f := range m.faculties {
		out = append(out, *f)
	}
	return out, nil
}

func (m *memOrgUnitRepo) FacultyCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	for _, f := range m.faculties {
		if strings.EqualFold(f.Code, code) && f.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrgUnitRepo) SaveFaculty(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = m.id("fac")
	}
	cp := *faculty
	m.faculties[faculty.ID] = &cp
	return nil
}

func (m *memOrgUnitRepo) DeleteFaculty(ctx context.Context, organisationID, id string) error {
	if _, ok := m.faculties[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.faculties, id)
	return nil
}

func (m *memOrgUnitRepo) FindDepartment(ctx context.Context, organisationID, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memOrgUnitRepo) ListDepartments(ctx context.Context, organisationID, facultyID string) ([]models.Department, error) {
	var out []models.Department
	for _, d := range m.departments {
		if facultyID == "" || (d.FacultyID != nil && *d.FacultyID == facultyID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memOrgUnitRepo) DepartmentCodeExists(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	for _, d := range m.departments {
		if strings.EqualFold(d.Code, code) && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrgUnitRepo) SaveDepartment(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = m.id("dep")
	}
	cp := *department
	m.departments[department.ID] = &cp
	return nil
}

func (m *memOrgUnitRepo) DeleteDepartment(ctx context.Context, organisationID, id string) error {
	if _, ok := m.departments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.departments, id)
	return nil
}

func TestOrgStructureFacultyCodeUniqueness(t *testing.T) {
	repo := newMemOrgUnitRepo()
	svc := NewOrgStructureService(repo, nil, nil, nil)
	ctx := context.Background()

	sci, err := svc.CreateFaculty(ctx, testActor, FacultyRequest{Code: "SCI", Name: "Science"})
	require.NoError(t, err)
	_, err = svc.CreateFaculty(ctx, testActor, FacultyRequest{Code: "sci", Name: "Other"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	updated, err := svc.UpdateFaculty(ctx, testActor, sci.ID, FacultyRequest{Code: "SCI", Name: "Sciences"})
	require.NoError(t, err)
	assert.Equal(t, "Sciences", updated.Name)
}

func TestOrgStructureDepartmentRequiresLiveFaculty(t *testing.T) {
	repo := newMemOrgUnitRepo()
	svc := NewOrgStructureService(repo, nil, nil, nil)
	ctx := context.Background()
	missing := "fac-missing"

	_, err := svc.CreateDepartment(ctx, testActor, DepartmentRequest{FacultyID: &missing, Code: "CS", Name: "Computing"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	faculty, err := svc.CreateFaculty(ctx, testActor, FacultyRequest{Code: "ENG", Name: "Engineering"})
	require.NoError(t, err)
	department, err := svc.CreateDepartment(ctx, testActor, DepartmentRequest{FacultyID: &faculty.ID, Code: "CS", Name: "Computing"})
	require.NoError(t, err)

	listed, err := svc.ListDepartments(ctx, testActor, faculty.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, department.ID, listed[0].ID)

	require.NoError(t, svc.DeleteDepartment(ctx, testActor, department.ID))
	err = svc.DeleteDepartment(ctx, testActor, department.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
