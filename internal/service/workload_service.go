package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type workloadRepository interface {
	FindWorkload(ctx context.Context, organisationID, id string) (*models.LecturerWorkload, error)
	ListWorkloads(ctx context.Context, organisationID, academicYearID string) ([]models.LecturerWorkload, error)
}

type overviewCache interface {
	Overview(ctx context.Context, organisationID, academicYearID string) (*models.WorkloadOverview, bool)
	StoreOverview(ctx context.Context, organisationID string, overview *models.WorkloadOverview)
}

// WorkloadService derives capacity views from lecturer allocations.
type WorkloadService struct {
	repo   workloadRepository
	years  academicYearReader
	cache  overviewCache
	logger *zap.Logger
}

// NewWorkloadService constructs the service. cache may be nil.
func NewWorkloadService(repo workloadRepository, years academicYearReader, cache overviewCache, logger *zap.Logger) *WorkloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{repo: repo, years: years, cache: cache, logger: logger}
}

// Lecturer returns the workload summary of one lecturer year instance.
func (s *WorkloadService) Lecturer(ctx context.Context, actor models.Actor, lecturerID string) (*models.LecturerWorkload, error) {
	workload, err := s.repo.FindWorkload(ctx, actor.OrganisationID, lecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer workload")
	}
	summarize(workload)
	return workload, nil
}

// Overview aggregates every lecturer of the year. The flag reports whether it came from cache.
func (s *WorkloadService) Overview(ctx context.Context, actor models.Actor, academicYearID string) (*models.WorkloadOverview, bool, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Overview(ctx, actor.OrganisationID, academicYearID); ok {
			return cached, true, nil
		}
	}
	if err := requireAcademicYear(ctx, s.years, actor, academicYearID); err != nil {
		return nil, false, err
	}
	workloads, err := s.repo.ListWorkloads(ctx, actor.OrganisationID, academicYearID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturer workloads")
	}

	overview := BuildOverview(academicYearID, workloads)
	if s.cache != nil {
		s.cache.StoreOverview(ctx, actor.OrganisationID, overview)
	}
	return overview, false, nil
}

// BuildOverview summarizes each workload and counts lecturers per capacity status.
func BuildOverview(academicYearID string, workloads []models.LecturerWorkload) *models.WorkloadOverview {
	overview := &models.WorkloadOverview{
		AcademicYearID: academicYearID,
		Lecturers:      make([]models.LecturerWorkload, len(workloads)),
		StatusCounts:   make(map[models.CapacityStatus]int, len(models.CapacityStatuses)),
	}
	for _, status := range models.CapacityStatuses {
		overview.StatusCounts[status] = 0
	}
	for i := range workloads {
		w := workloads[i]
		summarize(&w)
		overview.Lecturers[i] = w
		overview.StatusCounts[w.Status]++
	}
	return overview
}

func summarize(w *models.LecturerWorkload) {
	w.Utilization = Utilization(w.TotalAllocated, w.TotalContract)
	w.TeachingUtilization = Utilization(w.TeachingHours, w.MaxTeachingHours)
	w.AvailableHours = AvailableHours(w.TotalContract, w.TotalAllocated)
	w.Status = ClassifyCapacity(w.TotalAllocated, w.TotalContract)
}
