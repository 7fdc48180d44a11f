package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAssignmentStatus(t *testing.T) {
	assert.Equal(t, AssignmentStatusUnassigned, DeriveAssignmentStatus(nil))
	assert.Equal(t, AssignmentStatusAssigned, DeriveAssignmentStatus([]string{"lec-1"}))
}

func TestAssignmentStatusIsWorkflow(t *testing.T) {
	assert.True(t, AssignmentStatusPending.IsWorkflow())
	assert.True(t, AssignmentStatusInProgress.IsWorkflow())
	assert.True(t, AssignmentStatusCompleted.IsWorkflow())
	assert.False(t, AssignmentStatusAssigned.IsWorkflow())
	assert.False(t, AssignmentStatusUnassigned.IsWorkflow())
	assert.False(t, AssignmentStatus("archived").IsWorkflow())
}

func TestSoftDeleteConventionsPerEntity(t *testing.T) {
	now := time.Now()
	assert.False(t, LecturerProfile{IsActive: false}.IsLive())
	assert.True(t, LecturerProfile{IsActive: true}.IsLive())
	assert.False(t, Lecturer{DeletedAt: &now}.IsLive())
	assert.True(t, Lecturer{}.IsLive())
	assert.False(t, ModuleProfile{}.IsLive())
	assert.True(t, Module{IsActive: false}.IsLive(), "modules use deleted_at, not is_active")
	assert.False(t, Module{DeletedAt: &now}.IsLive())
	assert.False(t, Department{DeletedAt: &now}.IsLive())
	assert.True(t, Faculty{}.IsLive())
}

func TestLecturerRecomputeTotal(t *testing.T) {
	l := Lecturer{AllocatedTeachingHours: 100, AllocatedAdminHours: 50, AllocatedResearchHours: 25, AllocatedOtherHours: 5, TotalAllocated: 1}
	l.RecomputeTotal()
	assert.Equal(t, 180.0, l.TotalAllocated)
}

func TestSummarizeResults(t *testing.T) {
	summary := SummarizeResults([]BulkResult{{Success: true}, {Success: false}, {Success: true}})
	assert.Equal(t, BulkSummary{Total: 3, Successful: 2, Failed: 1}, summary)
}
