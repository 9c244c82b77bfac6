package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// Outbox entity types drained by the sync worker.
const (
	EntityUser         = "user"
	EntityHackathon    = "hackathon"
	EntityAssignment   = "assignment"
	EntityAudit        = "audit"
	EntityNotification = "notification"
)

const (
	OpUpsert       = "UPSERT"
	OpDelete       = "DELETE"
	OpTaskAssigned = "TASK_ASSIGNED"
)

// AddOutboxEvent inserts one event into the outbox. Pass the open
// transaction so the event commits with the change it describes.
func AddOutboxEvent(tx *gorm.DB, entityType string, entityID uuid.UUID, op string, payload any) error {
	var data datatypes.JSON
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s outbox payload: %w", entityType, err)
		}
		data = raw
	}

	event := models.Outbox{
		EntityType: entityType,
		EntityID:   entityID,
		Op:         op,
		Payload:    data,
	}

	if err := tx.Create(&event).Error; err != nil {
		logger.Error.Printf("❌ Failed to create outbox event: %v", err)
		return err
	}
	return nil
}

// AddBatchOutboxEvents inserts one payload-less event per id.
// Used for cascading reindexing, e.g. a participant's assignments after a
// skills change.
func AddBatchOutboxEvents(tx *gorm.DB, entityType string, op string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	events := make([]models.Outbox, 0, len(ids))
	for _, id := range ids {
		events = append(events, models.Outbox{EntityType: entityType, EntityID: id, Op: op})
	}
	if err := tx.Create(&events).Error; err != nil {
		logger.Error.Printf("❌ Failed to insert batch outbox for %s: %v", entityType, err)
		return err
	}
	logger.Debug.Printf("📦 %d outbox events created for %s", len(ids), entityType)
	return nil
}
