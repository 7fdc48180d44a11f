package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/jobs"
)

// AuditSink persists audit entries.
type AuditSink interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// AuditPolicy selects how a batch operation is reflected in the audit trail.
type AuditPolicy string

const (
	AuditPolicyNone  AuditPolicy = "none"
	AuditPolicyBatch AuditPolicy = "batch"
	AuditPolicyItem  AuditPolicy = "item"
)

// ParseAuditPolicy reads a policy name, falling back when it is unknown.
func ParseAuditPolicy(raw string, fallback AuditPolicy) AuditPolicy {
	switch p := AuditPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case AuditPolicyNone, AuditPolicyBatch, AuditPolicyItem:
		return p
	}
	return fallback
}

// AuditRecorder writes audit entries on a best-effort basis: sink failures are logged, never returned.
type AuditRecorder struct {
	sink   AuditSink
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditRecorder constructs a recorder. A nil sink discards entries.
func NewAuditRecorder(sink AuditSink, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{sink: sink, logger: logger, now: time.Now}
}

// Record stores one entry describing an action by actor on an entity.
func (r *AuditRecorder) Record(ctx context.Context, actor models.Actor, action, entityType, entityID string, changes interface{}) {
	if r == nil || r.sink == nil {
		return
	}

	entry := &models.AuditLog{
		OrganisationID: actor.OrganisationID,
		UserID:         actor.UserID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		CreatedAt:      r.now().UTC(),
	}
	if changes != nil {
		payload, err := json.Marshal(changes)
		if err != nil {
			r.logger.Warn("audit changes not serialisable", zap.String("action", action), zap.Error(err))
		} else {
			entry.Changes = types.JSONText(payload)
		}
	}

	if err := r.sink.Record(ctx, entry); err != nil {
		r.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// RecordBatch reflects a finished batch according to policy. Item policy writes one entry
// per successful result; batch policy writes a single summary against the batch entity.
func (r *AuditRecorder) RecordBatch(ctx context.Context, actor models.Actor, policy AuditPolicy, action string, batch BatchTarget, results []models.BulkResult) {
	switch policy {
	case AuditPolicyItem:
		for _, result := range results {
			if !result.Success {
				continue
			}
			r.Record(ctx, actor, action, batch.ItemEntityType, result.ID, map[string]interface{}{
				"code":             result.Code,
				"academic_year_id": batch.EntityID,
			})
		}
	case AuditPolicyBatch:
		r.Record(ctx, actor, action, batch.EntityType, batch.EntityID, models.SummarizeResults(results))
	}
}

// BatchTarget names the entity a batch summary is filed against and the type of its items.
type BatchTarget struct {
	EntityType     string
	EntityID       string
	ItemEntityType string
}

// AsyncAuditSink hands entries to a worker queue that delivers them to the wrapped sink.
type AsyncAuditSink struct {
	queue *jobs.Queue[models.AuditLog]
}

// NewAsyncAuditSink builds a queued sink around next.
func NewAsyncAuditSink(next AuditSink, cfg jobs.QueueConfig) *AsyncAuditSink {
	handler := func(ctx context.Context, entry models.AuditLog) error {
		return next.Record(ctx, &entry)
	}
	return &AsyncAuditSink{queue: jobs.NewQueue[models.AuditLog]("audit", handler, cfg)}
}

// Start launches the delivery workers.
func (s *AsyncAuditSink) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains queued entries and stops the workers.
func (s *AsyncAuditSink) Stop() { s.queue.Stop() }

// Record enqueues a copy of entry.
func (s *AsyncAuditSink) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil {
		return nil
	}
	if err := s.queue.Enqueue(ctx, *entry); err != nil {
		return fmt.Errorf("queue audit entry: %w", err)
	}
	return nil
}

type auditLogReader interface {
	ListByEntity(ctx context.Context, organisationID, entityType, entityID string, limit int) ([]models.AuditLog, error)
}

// AuditLogService reads the audit trail of an entity.
type AuditLogService struct {
	repo auditLogReader
}

// NewAuditLogService constructs the service.
func NewAuditLogService(repo auditLogReader) *AuditLogService {
	return &AuditLogService{repo: repo}
}

// ListByEntity returns the newest entries for one entity.
func (s *AuditLogService) ListByEntity(ctx context.Context, actor models.Actor, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if entityType == "" || entityID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity_type and entity_id are required")
	}
	logs, err := s.repo.ListByEntity(ctx, actor.OrganisationID, entityType, entityID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, nil
}
