package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type stubAdminAllocationRepo struct {
	entries     []models.AdminAllocation
	replaced    []models.AdminAllocation
	replaceCall int
	adminHours  float64
	replaceErr  error
}

func (s *stubAdminAllocationRepo) ListByLecturer(ctx context.Context, organisationID, lecturerID string) ([]models.AdminAllocation, error) {
	return s.entries, nil
}

func (s *stubAdminAllocationRepo) ReplaceForLecturer(ctx context.Context, organisationID, lecturerID string, entries []models.AdminAllocation, adminHours float64) error {
	s.replaceCall++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = entries
	s.adminHours = adminHours
	return nil
}

type stubLecturerReader struct {
	items map[string]*models.Lecturer
}

func (s *stubLecturerReader) FindByID(ctx context.Context, organisationID, id string) (*models.Lecturer, error) {
	if l, ok := s.items[id]; ok && l.OrganisationID == organisationID {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type stubLecturerProfileReader struct {
	items map[string]*models.LecturerProfile
}

func (s *stubLecturerProfileReader) FindByID(ctx context.Context, organisationID, id string) (*models.LecturerProfile, error) {
	if p, ok := s.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type recordingInvalidator struct{ calls []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, organisationID string) {
	r.calls = append(r.calls, organisationID)
}

func newAdminAllocationFixture() (*AdminAllocationService, *stubAdminAllocationRepo, *fakeAuditSink, *recordingInvalidator) {
	repo := &stubAdminAllocationRepo{entries: []models.AdminAllocation{
		{Category: "Leadership", IsHeader: true},
		{Category: "Leadership", Description: "Programme lead", Hours: hours(30)},
		{Category: "Committees", Description: "Exam board", Hours: hours(10)},
	}}
	lecturers := &stubLecturerReader{items: map[string]*models.Lecturer{
		"lec-1": {ID: "lec-1", OrganisationID: "org-1", ProfileID: "lp-1", TotalAllocated: 1495},
	}}
	profiles := &stubLecturerProfileReader{items: map[string]*models.LecturerProfile{
		"lp-1": {ID: "lp-1", OrganisationID: "org-1", TotalContract: 1500, IsActive: true},
	}}
	sink := &fakeAuditSink{}
	cache := &recordingInvalidator{}
	svc := NewAdminAllocationService(repo, lecturers, profiles, NewAuditRecorder(sink, nil), cache, nil, nil, nil)
	return svc, repo, sink, cache
}

func editedRequest(lead, board float64) SaveAdminAllocationsRequest {
	return SaveAdminAllocationsRequest{Entries: []AdminAllocationEntry{
		{Category: "Leadership", IsHeader: true},
		{Category: "Leadership", Description: "Programme lead", Hours: hours(lead)},
		{Category: "Committees", Description: "Exam board", Hours: hours(board)},
	}}
}

func TestAdminAllocationSaveRejectsOverCapacity(t *testing.T) {
	svc, repo, sink, cache := newAdminAllocationFixture()

	check, err := svc.Save(context.Background(), testActor, "lec-1", editedRequest(40, 10))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))
	assert.Equal(t, 422, appErrors.FromError(err).Status)
	require.NotNil(t, check)
	assert.Equal(t, 10.0, check.Delta)
	assert.Equal(t, -5.0, check.Remaining)
	assert.Equal(t, 0, repo.replaceCall)
	assert.Empty(t, sink.entries)
	assert.Empty(t, cache.calls)
}

func TestAdminAllocationSaveAcceptsWithinCapacity(t *testing.T) {
	svc, repo, sink, cache := newAdminAllocationFixture()

	check, err := svc.Save(context.Background(), testActor, "lec-1", editedRequest(34, 10))
	require.NoError(t, err)
	assert.Equal(t, 4.0, check.Delta)
	assert.Equal(t, 1.0, check.Remaining)
	assert.Equal(t, 1, repo.replaceCall)
	assert.Len(t, repo.replaced, 3)
	assert.Equal(t, 44.0, repo.adminHours)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, models.AuditActionAdminAllocationUpdate, sink.entries[0].Action)
	assert.Equal(t, models.EntityLecturer, sink.entries[0].EntityType)
	assert.Equal(t, "lec-1", sink.entries[0].EntityID)
	assert.Equal(t, []string{"org-1"}, cache.calls)
}

func TestAdminAllocationSaveRejectsNegativeEntryWholesale(t *testing.T) {
	svc, repo, sink, _ := newAdminAllocationFixture()

	_, err := svc.Save(context.Background(), testActor, "lec-1", editedRequest(-2, 10))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "Hours allocated cannot be negative")
	assert.Equal(t, 0, repo.replaceCall)
	assert.Empty(t, sink.entries)
}

func TestAdminAllocationSaveMissingHours(t *testing.T) {
	svc, repo, _, _ := newAdminAllocationFixture()
	req := SaveAdminAllocationsRequest{Entries: []AdminAllocationEntry{{Category: "Leadership"}}}

	_, err := svc.Save(context.Background(), testActor, "lec-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, repo.replaceCall)
}

func TestAdminAllocationSaveUnknownLecturer(t *testing.T) {
	svc, _, _, _ := newAdminAllocationFixture()

	_, err := svc.Save(context.Background(), models.Actor{UserID: "u", OrganisationID: "org-2"}, "lec-1", editedRequest(30, 10))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAdminAllocationSaveStoreFailure(t *testing.T) {
	svc, repo, sink, _ := newAdminAllocationFixture()
	repo.replaceErr = errors.New("tx aborted")

	_, err := svc.Save(context.Background(), testActor, "lec-1", editedRequest(30, 10))
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, sink.entries)
}

func TestAdminAllocationPreviewDoesNotPersist(t *testing.T) {
	svc, repo, sink, _ := newAdminAllocationFixture()

	check, err := svc.Preview(context.Background(), testActor, "lec-1", editedRequest(40, 10))
	require.NoError(t, err)
	assert.False(t, check.Admissible)
	require.Len(t, check.Entries, 2)
	assert.Equal(t, 10.0, check.Entries[0].Delta)
	assert.Equal(t, 0, repo.replaceCall)
	assert.Empty(t, sink.entries)
}
