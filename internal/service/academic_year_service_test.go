package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type memAcademicYearRepo struct {
	items []models.AcademicYear
}

func (m *memAcademicYearRepo) FindByID(ctx context.Context, organisationID, id string) (*models.AcademicYear, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAcademicYearRepo) FindDefault(ctx context.Context, organisationID string) (*models.AcademicYear, error) {
	for i := range m.items {
		if m.items[i].IsDefault {
			return &m.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAcademicYearRepo) List(ctx context.Context, organisationID string) ([]models.AcademicYear, error) {
	return m.items, nil
}

func (m *memAcademicYearRepo) Create(ctx context.Context, year *models.AcademicYear) error {
	year.ID = "ay-new"
	m.items = append(m.items, *year)
	return nil
}

func TestAcademicYearCreate(t *testing.T) {
	repo := &memAcademicYearRepo{}
	sink := &fakeAuditSink{}
	svc := NewAcademicYearService(repo, NewAuditRecorder(sink, nil), nil, nil)

	year, err := svc.Create(context.Background(), testActor, CreateAcademicYearRequest{
		Name:      "2025/26",
		StartDate: "2025-09-01",
		EndDate:   "2026-08-31",
		IsDefault: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "org-1", year.OrganisationID)
	assert.Equal(t, []string{models.AuditActionAcademicYearCreate}, sink.actions())

	def, err := svc.Default(context.Background(), testActor)
	require.NoError(t, err)
	assert.Equal(t, "ay-new", def.ID)
}

func TestAcademicYearCreateRejectsInvertedRange(t *testing.T) {
	svc := NewAcademicYearService(&memAcademicYearRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), testActor, CreateAcademicYearRequest{Name: "bad", StartDate: "2026-09-01", EndDate: "2026-08-31"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), testActor, CreateAcademicYearRequest{Name: "bad", StartDate: "01/09/2025", EndDate: "2026-08-31"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAcademicYearDefaultMissing(t *testing.T) {
	svc := NewAcademicYearService(&memAcademicYearRepo{}, nil, nil, nil)
	_, err := svc.Default(context.Background(), testActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
