package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type AuditRecord struct {
	Action       models.AuditAction
	ActorID      uuid.UUID
	TargetUserID *uuid.UUID
	HackathonID  *uuid.UUID
	TaskID       *uuid.UUID
	AssignmentID *uuid.UUID
	Details      map[string]any
	SourceIP     string
}

// AuditSink records who did what. Callers log failures and carry on.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}

var _ AuditSink = (*OutboxAuditSink)(nil)

// OutboxAuditSink stores the audit row and queues it for search indexing.
type OutboxAuditSink struct {
	DB *gorm.DB
}

func (s *OutboxAuditSink) Record(ctx context.Context, rec AuditRecord) error {
	var details datatypes.JSON
	if len(rec.Details) > 0 {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = raw
	}

	row := models.AuditLog{
		Action:       rec.Action,
		ActorID:      rec.ActorID,
		TargetUserID: rec.TargetUserID,
		HackathonID:  rec.HackathonID,
		TaskID:       rec.TaskID,
		AssignmentID: rec.AssignmentID,
		Details:      details,
		SourceIP:     SourceIP(ctx, rec.SourceIP),
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}
		return AddOutboxEvent(tx, EntityAudit, row.ID, OpUpsert, nil)
	})
}

type sourceIPKey struct{}

// WithSourceIP attaches the caller's address to ctx for audit records.
func WithSourceIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, sourceIPKey{}, ip)
}

// SourceIP returns fallback when set, otherwise the address carried by ctx.
func SourceIP(ctx context.Context, fallback string) string {
	if fallback != "" {
		return fallback
	}
	ip, _ := ctx.Value(sourceIPKey{}).(string)
	return ip
}

func ref(id uuid.UUID) *uuid.UUID {
	return &id
}
