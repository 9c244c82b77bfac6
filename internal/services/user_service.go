package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// UpdateSkills replaces a user's skill tags and queues the user plus every
// assignment they hold for reindexing.
func UpdateSkills(ctx context.Context, db *gorm.DB, id uuid.UUID, skills []string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Update("skills", datatypes.JSONSlice[string](skills))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s: %w", id, assignment.ErrNotFound)
		}

		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if err := AddOutboxEvent(tx, EntityUser, user.ID, OpUpsert, user); err != nil {
			return err
		}

		var held []uuid.UUID
		if err := tx.Model(&models.Assignment{}).Where("participant_id = ?", id).Pluck("id", &held).Error; err != nil {
			return err
		}
		return AddBatchOutboxEvents(tx, EntityAssignment, OpUpsert, held)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, assignment.ErrNotFound)
		}
		return nil, err
	}

	logger.Info.Printf("📤 Outbox event recorded for user %s", user.Email)
	return &user, nil
}
