package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// AuditRepository stores audit trail entries.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record stores an audit log entry.
func (r *AuditRepository) Record(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, organisation_id, user_id, action, entity_type, entity_id, changes, created_at)
		VALUES (:id, :organisation_id, :user_id, :action, :entity_type, :entity_id, :changes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByEntity returns the trail of one entity, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, organisationID, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, organisation_id, user_id, action, entity_type, entity_id, changes, created_at
FROM audit_logs WHERE organisation_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY created_at DESC LIMIT $4`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, organisationID, entityType, entityID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
