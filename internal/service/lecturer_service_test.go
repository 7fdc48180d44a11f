package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type memLecturerProfileRepo struct {
	items map[string]*models.LecturerProfile
}

func (m *memLecturerProfileRepo) FindByID(ctx context.Context, organisationID, id string) (*models.LecturerProfile, error) {
	if p, ok := m.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memLecturerProfileRepo) List(ctx context.Context, organisationID string, filter models.LecturerProfileFilter) ([]models.LecturerProfile, int, error) {
	var out []models.LecturerProfile
	for _, p := range m.items {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memLecturerProfileRepo) ExistsByEmail(ctx context.Context, organisationID, email, excludeID string) (bool, error) {
	for _, p := range m.items {
		if p.IsLive() && strings.EqualFold(p.Email, email) && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLecturerProfileRepo) Create(ctx context.Context, profile *models.LecturerProfile) error {
	profile.ID = "lp-new"
	cp := *profile
	m.items[profile.ID] = &cp
	return nil
}

func (m *memLecturerProfileRepo) Update(ctx context.Context, profile *models.LecturerProfile) error {
	cp := *profile
	m.items[profile.ID] = &cp
	return nil
}

func (m *memLecturerProfileRepo) Deactivate(ctx context.Context, organisationID, id string) error {
	p, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = false
	return nil
}

type memLecturerRepo struct {
	items map[string]*models.Lecturer
}

func (m *memLecturerRepo) FindByID(ctx context.Context, organisationID, id string) (*models.Lecturer, error) {
	if l, ok := m.items[id]; ok && l.IsLive() {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memLecturerRepo) ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error) {
	for _, l := range m.items {
		if l.ProfileID == profileID && l.AcademicYearID == academicYearID && l.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLecturerRepo) Create(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.ID = "lec-new"
	lecturer.RecomputeTotal()
	cp := *lecturer
	m.items[lecturer.ID] = &cp
	return nil
}

func (m *memLecturerRepo) UpdateHours(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.RecomputeTotal()
	cp := *lecturer
	m.items[lecturer.ID] = &cp
	return nil
}

func (m *memLecturerRepo) SoftDelete(ctx context.Context, organisationID, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func newLecturerFixture() (*LecturerService, *memLecturerRepo, *recordingInvalidator) {
	profiles := &memLecturerProfileRepo{items: map[string]*models.LecturerProfile{
		"lp-1": {ID: "lp-1", OrganisationID: "org-1", FullName: "Ada", Email: "ada@example.ac.uk", MaxTeachingHours: 550, TotalContract: 1500, IsActive: true},
		"lp-2": {ID: "lp-2", OrganisationID: "org-1", FullName: "Old", Email: "old@example.ac.uk", IsActive: false},
	}}
	lecturers := &memLecturerRepo{items: map[string]*models.Lecturer{
		"lec-1": {ID: "lec-1", OrganisationID: "org-1", ProfileID: "lp-1", AcademicYearID: "ay-1", AllocatedTeachingHours: 500, AllocatedAdminHours: 200, TotalAllocated: 700},
	}}
	cache := &recordingInvalidator{}
	svc := NewLecturerService(profiles, lecturers, stubYearReader{ids: map[string]bool{"ay-1": true, "ay-2": true}}, NewAuditRecorder(&fakeAuditSink{}, nil), cache, nil, nil)
	return svc, lecturers, cache
}

func TestLecturerCreateProfileRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	_, err := svc.CreateProfile(context.Background(), testActor, LecturerProfileRequest{FullName: "Ada Two", Email: "ADA@example.ac.uk", FTE: 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	profile, err := svc.CreateProfile(context.Background(), testActor, LecturerProfileRequest{FullName: "Returner", Email: "old@example.ac.uk", FTE: 0.5})
	require.NoError(t, err)
	assert.True(t, profile.IsActive)
}

func TestLecturerUpdateHoursRecomputesTotal(t *testing.T) {
	svc, lecturers, cache := newLecturerFixture()

	lecturer, err := svc.UpdateHours(context.Background(), testActor, "lec-1", UpdateLecturerHoursRequest{
		ResearchHours: hours(300),
		OtherHours:    hours(25),
	})
	require.NoError(t, err)
	assert.Equal(t, 1025.0, lecturer.TotalAllocated)
	assert.Equal(t, 1025.0, lecturers.items["lec-1"].TotalAllocated)
	assert.Equal(t, []string{"org-1"}, cache.calls)
}

func TestLecturerUpdateHoursIgnoresAdminHours(t *testing.T) {
	svc, lecturers, _ := newLecturerFixture()

	var req UpdateLecturerHoursRequest
	require.NoError(t, json.Unmarshal([]byte(`{"allocated_admin_hours": 999, "allocated_other_hours": 10}`), &req))
	lecturer, err := svc.UpdateHours(context.Background(), testActor, "lec-1", req)
	require.NoError(t, err)
	assert.Equal(t, 200.0, lecturer.AllocatedAdminHours)
	assert.Equal(t, 200.0, lecturers.items["lec-1"].AllocatedAdminHours)
	assert.Equal(t, 710.0, lecturer.TotalAllocated)
}

func TestLecturerUpdateHoursRejectsNegative(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	_, err := svc.UpdateHours(context.Background(), testActor, "lec-1", UpdateLecturerHoursRequest{ResearchHours: hours(-1)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLecturerAddToYear(t *testing.T) {
	svc, _, _ := newLecturerFixture()
	ctx := context.Background()

	_, err := svc.AddToYear(ctx, testActor, AddLecturerToYearRequest{ProfileID: "lp-1", AcademicYearID: "ay-1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	lecturer, err := svc.AddToYear(ctx, testActor, AddLecturerToYearRequest{ProfileID: "lp-1", AcademicYearID: "ay-2"})
	require.NoError(t, err)
	assert.Equal(t, 550.0, lecturer.TeachingAvailability)
	assert.Equal(t, models.LecturerStatusActive, lecturer.Status)

	_, err = svc.AddToYear(ctx, testActor, AddLecturerToYearRequest{ProfileID: "lp-2", AcademicYearID: "ay-2"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLecturerDeleteMissing(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	assert.NoError(t, svc.Delete(context.Background(), testActor, "lec-1"))
	err := svc.Delete(context.Background(), testActor, "lec-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
