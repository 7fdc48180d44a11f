package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

var moduleProfileColumns = []string{
	"id", "organisation_id", "code", "title", "credits", "level", "default_teaching_hours",
	"default_marking_hours", "module_leader", "is_active", "created_at", "updated_at",
}

// ModuleProfileRepository manages reusable module definitions.
type ModuleProfileRepository struct {
	db *sqlx.DB
}

// NewModuleProfileRepository constructs the repository.
func NewModuleProfileRepository(db *sqlx.DB) *ModuleProfileRepository {
	return &ModuleProfileRepository{db: db}
}

// FindByID fetches a profile regardless of its active flag.
func (r *ModuleProfileRepository) FindByID(ctx context.Context, organisationID, id string) (*models.ModuleProfile, error) {
	query := "SELECT " + strings.Join(moduleProfileColumns, ", ") + " FROM module_profiles WHERE organisation_id = $1 AND id = $2"
	var profile models.ModuleProfile
	if err := r.db.GetContext(ctx, &profile, query, organisationID, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListActive returns live profiles ordered by code.
func (r *ModuleProfileRepository) ListActive(ctx context.Context, organisationID string) ([]models.ModuleProfile, error) {
	query := "SELECT " + strings.Join(moduleProfileColumns, ", ") + " FROM module_profiles WHERE organisation_id = $1 AND " + moduleProfileLive + " ORDER BY code ASC"
	var profiles []models.ModuleProfile
	if err := r.db.SelectContext(ctx, &profiles, query, organisationID); err != nil {
		return nil, fmt.Errorf("list active module profiles: %w", err)
	}
	return profiles, nil
}

// List returns profiles matching filter plus the total count.
func (r *ModuleProfileRepository) List(ctx context.Context, organisationID string, filter models.ModuleProfileFilter) ([]models.ModuleProfile, int, error) {
	conds := sq.And{sq.Eq{"organisation_id": organisationID}}
	if filter.Active != nil {
		conds = append(conds, sq.Eq{"is_active": *filter.Active})
	}
	if filter.Level != nil {
		conds = append(conds, sq.Eq{"level": *filter.Level})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		conds = append(conds, sq.Or{sq.Like{"LOWER(code)": pattern}, sq.Like{"LOWER(title)": pattern}})
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query, args, err := psql.Select(moduleProfileColumns...).
		From("module_profiles").
		Where(conds).
		OrderBy("code ASC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build module profile query: %w", err)
	}
	var profiles []models.ModuleProfile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list module profiles: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("module_profiles").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build module profile count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count module profiles: %w", err)
	}
	return profiles, total, nil
}

// ExistsByCode checks whether another live profile of the organisation uses code.
func (r *ModuleProfileRepository) ExistsByCode(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	return codeExists(ctx, r.db, "module_profiles", moduleProfileLive, organisationID, code, excludeID)
}

// Create inserts a profile.
func (r *ModuleProfileRepository) Create(ctx context.Context, profile *models.ModuleProfile) error {
	return insertModuleProfile(ctx, r.db, profile, time.Now().UTC())
}

// CreateWithInstance inserts a profile and its first year instance in one transaction.
func (r *ModuleProfileRepository) CreateWithInstance(ctx context.Context, profile *models.ModuleProfile, module *models.Module) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create module profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if err = insertModuleProfile(ctx, tx, profile, now); err != nil {
		return err
	}
	module.ProfileID = profile.ID
	if err = insertModule(ctx, tx, module, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create module profile: %w", err)
	}
	return nil
}

func insertModuleProfile(ctx context.Context, ext sqlx.ExtContext, profile *models.ModuleProfile, now time.Time) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO module_profiles (id, organisation_id, code, title, credits, level, default_teaching_hours, default_marking_hours, module_leader, is_active, created_at, updated_at)
		VALUES (:id, :organisation_id, :code, :title, :credits, :level, :default_teaching_hours, :default_marking_hours, :module_leader, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, profile); err != nil {
		return fmt.Errorf("create module profile: %w", err)
	}
	return nil
}

// Update modifies a profile.
func (r *ModuleProfileRepository) Update(ctx context.Context, profile *models.ModuleProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE module_profiles SET code = :code, title = :title, credits = :credits, level = :level,
		default_teaching_hours = :default_teaching_hours, default_marking_hours = :default_marking_hours,
		module_leader = :module_leader, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id AND organisation_id = :organisation_id`
	result, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update module profile: %w", err)
	}
	return requireAffected(result, "module profile")
}

// Deactivate soft-deletes a profile.
func (r *ModuleProfileRepository) Deactivate(ctx context.Context, organisationID, id string) error {
	const query = `UPDATE module_profiles SET is_active = FALSE, updated_at = $3 WHERE organisation_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, organisationID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate module profile: %w", err)
	}
	return requireAffected(result, "module profile")
}
