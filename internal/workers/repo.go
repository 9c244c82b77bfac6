// internal/workers/repo.go
// this file is used to fetch the outbox events and put them in the DLQ
package workers

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/db"
	"github.com/sirdesai22/hackathon-tasks/internal/metrics"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type OutboxBatch struct{ Events []models.Outbox }

// FetchOutboxBatch claims up to limit unprocessed events and marks them
// processed in the same statement or transaction.
func FetchOutboxBatch(ctx context.Context, g *gorm.DB, limit int) (OutboxBatch, error) {
	var evts []models.Outbox
	if db.IsPostgres(g) {
		// FOR UPDATE SKIP LOCKED lets several workers drain concurrently
		tx := g.WithContext(ctx).Raw(`
			WITH cte AS (
			  SELECT * FROM outboxes
			  WHERE processed = false
			  ORDER BY id ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED
			)
			UPDATE outboxes SET processed = true
			FROM cte
			WHERE outboxes.id = cte.id
			RETURNING cte.*`, limit).Scan(&evts)
		return OutboxBatch{Events: evts}, tx.Error
	}

	err := g.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("processed = ?", false).Order("id ASC").Limit(limit).Find(&evts).Error; err != nil {
			return err
		}
		if len(evts) == 0 {
			return nil
		}
		ids := make([]int64, len(evts))
		for i, e := range evts {
			ids[i] = e.ID
		}
		return tx.Model(&models.Outbox{}).Where("id IN ?", ids).Update("processed", true).Error
	})
	return OutboxBatch{Events: evts}, err
}

// PutDLQ inserts a failed outbox event into the DLQ table.
func PutDLQ(g *gorm.DB, ob models.Outbox, msg string) {
	metrics.DLQEvents.Inc()
	dlq := models.DLQ{
		OutboxID:   ob.ID,
		EntityType: ob.EntityType,
		EntityID:   ob.EntityID.String(),
		Op:         ob.Op,
		ErrorMsg:   msg,
		Payload:    ob.Payload,
		CreatedAt:  time.Now(),
		Resolved:   false,
	}
	if err := g.Create(&dlq).Error; err != nil {
		logger.Error.Printf("❌ Failed to insert into DLQ: %v", err)
	} else {
		logger.Info.Printf("💀 DLQ record created for outbox_id=%d", ob.ID)
	}
}

// PendingDLQ returns unresolved DLQ rows, oldest first.
func PendingDLQ(ctx context.Context, g *gorm.DB, limit int) ([]models.DLQ, error) {
	var dlqs []models.DLQ
	err := g.WithContext(ctx).Where("resolved = ?", false).Order("id ASC").Limit(limit).Find(&dlqs).Error
	return dlqs, err
}
