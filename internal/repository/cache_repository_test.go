package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	_, err := repo.GetOverview(ctx, "org-1", "ay-1")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.SetOverview(ctx, "org-1", &models.WorkloadOverview{AcademicYearID: "ay-1"}, time.Minute))
	assert.NoError(t, repo.InvalidateOrganisation(ctx, "org-1"))
	assert.NoError(t, repo.Close())
}
