package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

func TestModuleIterationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "organisation_id", "module_id", "academic_year_id", "semester", "assigned_lecturer_ids", "assigned_status", "deleted_at", "created_at", "updated_at"}).
		AddRow("it-1", "org-1", "mod-1", "ay-1", "S1", "{lec-1,lec-2}", "assigned", nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM module_iterations WHERE organisation_id = \\$1 AND id = \\$2 AND deleted_at IS NULL").
		WithArgs("org-1", "it-1").
		WillReturnRows(rows)

	iteration, err := repo.FindByID(context.Background(), "org-1", "it-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lec-1", "lec-2"}, []string(iteration.AssignedLecturerIDs))
	assert.Equal(t, models.AssignmentStatusAssigned, iteration.AssignedStatus)
	assert.True(t, iteration.IsLive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectExec("INSERT INTO module_iterations").
		WithArgs(sqlmock.AnyArg(), "org-1", "mod-1", "ay-1", "S2", sqlmock.AnyArg(), "unassigned", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	iteration := &models.ModuleIteration{OrganisationID: "org-1", ModuleID: "mod-1", AcademicYearID: "ay-1", Semester: "S2"}
	require.NoError(t, repo.Create(context.Background(), iteration))
	assert.NotEmpty(t, iteration.ID)
	assert.Equal(t, models.AssignmentStatusUnassigned, iteration.AssignedStatus)
	assert.NotNil(t, iteration.AssignedLecturerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryAssignLecturerCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE module_iterations SET assigned_lecturer_ids = $3, assigned_status = $4")).
		WithArgs("org-1", "it-1", sqlmock.AnyArg(), "assigned", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO module_allocations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lecturers SET allocated_teaching_hours = allocated_teaching_hours + $3")).
		WithArgs("org-1", "lec-1", 48.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	allocation := &models.ModuleAllocation{OrganisationID: "org-1", ModuleIterationID: "it-1", LecturerID: "lec-1", TeachingHours: 36, MarkingHours: 12}
	err := repo.AssignLecturer(context.Background(), "org-1", "it-1", []string{"lec-1"}, models.AssignmentStatusAssigned, allocation)
	require.NoError(t, err)
	assert.NotEmpty(t, allocation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryAssignLecturerRollsBack(t *testing.T) {
	cases := map[string]func(mock sqlmock.Sqlmock){
		"allocation insert fails": func(mock sqlmock.Sqlmock) {
			mock.ExpectExec("INSERT INTO module_allocations").WillReturnError(errors.New("fk violation"))
		},
		"lecturer row missing": func(mock sqlmock.Sqlmock) {
			mock.ExpectExec("INSERT INTO module_allocations").WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectExec("UPDATE lecturers SET allocated_teaching_hours").WillReturnResult(sqlmock.NewResult(0, 0))
		},
	}
	for name, tail := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock, cleanup := newRepoMock(t)
			defer cleanup()
			repo := NewModuleIterationRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE module_iterations SET assigned_lecturer_ids").WillReturnResult(sqlmock.NewResult(0, 1))
			tail(mock)
			mock.ExpectRollback()

			allocation := &models.ModuleAllocation{OrganisationID: "org-1", ModuleIterationID: "it-1", LecturerID: "lec-x", TeachingHours: 10}
			err := repo.AssignLecturer(context.Background(), "org-1", "it-1", []string{"lec-x"}, models.AssignmentStatusAssigned, allocation)
			assert.Error(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestModuleIterationRepositoryAssignLecturerMissingIteration(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE module_iterations SET assigned_lecturer_ids").
		WithArgs("org-1", "it-9", sqlmock.AnyArg(), "assigned", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AssignLecturer(context.Background(), "org-1", "it-9", []string{"lec-1"}, models.AssignmentStatusAssigned, &models.ModuleAllocation{LecturerID: "lec-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryUnassignLecturerRemovesOldestAllocation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE module_iterations SET assigned_lecturer_ids").
		WithArgs("org-1", "it-1", sqlmock.AnyArg(), "unassigned", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM module_allocations WHERE organisation_id = \\$1 AND module_iteration_id = \\$2 AND lecturer_id = \\$3 ORDER BY created_at ASC LIMIT 1 FOR UPDATE").
		WithArgs("org-1", "it-1", "lec-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organisation_id", "module_iteration_id", "lecturer_id", "teaching_hours", "marking_hours", "allocation_type_id", "created_at", "updated_at"}).
			AddRow("alloc-1", "org-1", "it-1", "lec-1", 36.0, 12.0, nil, time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM module_allocations WHERE organisation_id = \\$1 AND id = \\$2").
		WithArgs("org-1", "alloc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lecturers SET allocated_teaching_hours").
		WithArgs("org-1", "lec-1", -48.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.UnassignLecturer(context.Background(), "org-1", "it-1", nil, models.AssignmentStatusUnassigned, "lec-1")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "alloc-1", removed.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryUnassignLecturerWithoutAllocation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE module_iterations SET assigned_lecturer_ids").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM module_allocations").WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	removed, err := repo.UnassignLecturer(context.Background(), "org-1", "it-1", nil, models.AssignmentStatusUnassigned, "lec-9")
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleIterationRepositoryUnassignLecturerRollsBackOnDeleteError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewModuleIterationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE module_iterations SET assigned_lecturer_ids").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM module_allocations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organisation_id", "module_iteration_id", "lecturer_id", "teaching_hours", "marking_hours", "allocation_type_id", "created_at", "updated_at"}).
			AddRow("alloc-1", "org-1", "it-1", "lec-1", 36.0, 12.0, nil, time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM module_allocations").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.UnassignLecturer(context.Background(), "org-1", "it-1", nil, models.AssignmentStatusUnassigned, "lec-1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
