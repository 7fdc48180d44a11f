package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

var lecturerProfileColumns = []string{
	"id", "organisation_id", "full_name", "email", "family", "fte", "capacity",
	"max_teaching_hours", "total_contract", "is_active", "created_at", "updated_at",
}

// LecturerProfileRepository manages persistence for lecturer profiles.
type LecturerProfileRepository struct {
	db *sqlx.DB
}

// NewLecturerProfileRepository constructs the repository.
func NewLecturerProfileRepository(db *sqlx.DB) *LecturerProfileRepository {
	return &LecturerProfileRepository{db: db}
}

// FindByID fetches a profile regardless of its active flag.
func (r *LecturerProfileRepository) FindByID(ctx context.Context, organisationID, id string) (*models.LecturerProfile, error) {
	query := "SELECT " + strings.Join(lecturerProfileColumns, ", ") + " FROM lecturer_profiles WHERE organisation_id = $1 AND id = $2"
	var profile models.LecturerProfile
	if err := r.db.GetContext(ctx, &profile, query, organisationID, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListActive returns live profiles ordered by name.
func (r *LecturerProfileRepository) ListActive(ctx context.Context, organisationID string) ([]models.LecturerProfile, error) {
	query := "SELECT " + strings.Join(lecturerProfileColumns, ", ") + " FROM lecturer_profiles WHERE organisation_id = $1 AND " + lecturerProfileLive + " ORDER BY full_name ASC"
	var profiles []models.LecturerProfile
	if err := r.db.SelectContext(ctx, &profiles, query, organisationID); err != nil {
		return nil, fmt.Errorf("list active lecturer profiles: %w", err)
	}
	return profiles, nil
}

// List returns profiles matching filter plus the total count.
func (r *LecturerProfileRepository) List(ctx context.Context, organisationID string, filter models.LecturerProfileFilter) ([]models.LecturerProfile, int, error) {
	conds := sq.And{sq.Eq{"organisation_id": organisationID}}
	if filter.Active != nil {
		conds = append(conds, sq.Eq{"is_active": *filter.Active})
	}
	if filter.Family != "" {
		conds = append(conds, sq.Eq{"family": filter.Family})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		conds = append(conds, sq.Or{sq.Like{"LOWER(full_name)": pattern}, sq.Like{"LOWER(email)": pattern}})
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query, args, err := psql.Select(lecturerProfileColumns...).
		From("lecturer_profiles").
		Where(conds).
		OrderBy("full_name ASC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build lecturer profile query: %w", err)
	}
	var profiles []models.LecturerProfile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturer profiles: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("lecturer_profiles").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build lecturer profile count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count lecturer profiles: %w", err)
	}
	return profiles, total, nil
}

// ExistsByEmail checks whether another live profile uses the email.
func (r *LecturerProfileRepository) ExistsByEmail(ctx context.Context, organisationID, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM lecturer_profiles WHERE organisation_id = $1 AND LOWER(email) = LOWER($2) AND " + lecturerProfileLive
	args := []interface{}{organisationID, email}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check lecturer email: %w", err)
	}
	return true, nil
}

// Create inserts a new profile.
func (r *LecturerProfileRepository) Create(ctx context.Context, profile *models.LecturerProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO lecturer_profiles (id, organisation_id, full_name, email, family, fte, capacity, max_teaching_hours, total_contract, is_active, created_at, updated_at)
		VALUES (:id, :organisation_id, :full_name, :email, :family, :fte, :capacity, :max_teaching_hours, :total_contract, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create lecturer profile: %w", err)
	}
	return nil
}

// Update modifies a profile's contract terms.
func (r *LecturerProfileRepository) Update(ctx context.Context, profile *models.LecturerProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturer_profiles SET full_name = :full_name, email = :email, family = :family, fte = :fte, capacity = :capacity,
		max_teaching_hours = :max_teaching_hours, total_contract = :total_contract, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id AND organisation_id = :organisation_id`
	result, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update lecturer profile: %w", err)
	}
	return requireAffected(result, "lecturer profile")
}

// Deactivate soft-deletes a profile.
func (r *LecturerProfileRepository) Deactivate(ctx context.Context, organisationID, id string) error {
	const query = `UPDATE lecturer_profiles SET is_active = FALSE, updated_at = $3 WHERE organisation_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, organisationID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate lecturer profile: %w", err)
	}
	return requireAffected(result, "lecturer profile")
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
