package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

func hoursPtr(v float64) *float64 { return &v }

func TestAdminAllocationRepositoryListByLecturer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminAllocationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "organisation_id", "lecturer_id", "category", "description", "hours", "is_header", "sort_order", "created_at"}).
		AddRow("a1", "org-1", "lec-1", "Leadership", "", nil, true, 0, time.Now()).
		AddRow("a2", "org-1", "lec-1", "Leadership", "Programme lead", 40.0, false, 1, time.Now())
	mock.ExpectQuery("FROM admin_allocations WHERE organisation_id = \\$1 AND lecturer_id = \\$2 ORDER BY sort_order").
		WithArgs("org-1", "lec-1").
		WillReturnRows(rows)

	entries, err := repo.ListByLecturer(context.Background(), "org-1", "lec-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Hours)
	assert.Equal(t, 40.0, *entries[1].Hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAllocationRepositoryReplaceForLecturer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM admin_allocations WHERE organisation_id = \\$1 AND lecturer_id = \\$2").
		WithArgs("org-1", "lec-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO admin_allocations").
		WithArgs(sqlmock.AnyArg(), "org-1", "lec-1", "Leadership", "Programme lead", 44.0, false, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE lecturers SET allocated_admin_hours = \\$3").
		WithArgs("org-1", "lec-1", 44.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entries := []models.AdminAllocation{{Category: "Leadership", Description: "Programme lead", Hours: hoursPtr(44)}}
	require.NoError(t, repo.ReplaceForLecturer(context.Background(), "org-1", "lec-1", entries, 44))
	assert.NotEmpty(t, entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAllocationRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM admin_allocations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO admin_allocations").WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	entries := []models.AdminAllocation{{Category: "Leadership", Hours: hoursPtr(10)}}
	err := repo.ReplaceForLecturer(context.Background(), "org-1", "lec-1", entries, 10)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
