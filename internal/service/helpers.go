package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

// User-facing messages shared by single and batch paths.
const (
	MessageModuleCodeExists = "Module code already exists"
	MessageAlreadyInYear    = "Already exists for this academic year"
)

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func requireAcademicYear(ctx context.Context, years academicYearReader, actor models.Actor, id string) error {
	if _, err := years.FindByID(ctx, actor.OrganisationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return nil
}
