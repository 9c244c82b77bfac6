package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/store"
)

type EnrollmentService struct {
	DB         *gorm.DB
	Hackathons *store.Hackathons
	Audit      AuditSink
	Now        func() time.Time
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{
		DB:         db,
		Hackathons: &store.Hackathons{DB: db},
		Audit:      &OutboxAuditSink{DB: db},
		Now:        time.Now,
	}
}

// Enroll adds userID to the hackathon's enrolled set while it is active and
// below MaxParticipants.
func (s *EnrollmentService) Enroll(ctx context.Context, hackathonID, userID uuid.UUID) (*models.Enrollment, error) {
	h, err := s.Hackathons.Get(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if h.Status != models.HackathonActive {
		return nil, fmt.Errorf("hackathon %s is %s: %w", h.ID, h.Status, assignment.ErrEnrollmentClosed)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	e := &models.Enrollment{HackathonID: h.ID, UserID: userID, EnrolledAt: now}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mine int64
		if err := tx.Model(&models.Enrollment{}).Where("hackathon_id = ? AND user_id = ?", h.ID, userID).Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			return assignment.ErrAlreadyEnrolled
		}

		var count int64
		if err := tx.Model(&models.Enrollment{}).Where("hackathon_id = ?", h.ID).Count(&count).Error; err != nil {
			return err
		}
		if h.MaxParticipants > 0 && count >= int64(h.MaxParticipants) {
			return assignment.ErrHackathonFull
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
		if res.Error != nil {
			return fmt.Errorf("insert enrollment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return assignment.ErrAlreadyEnrolled
		}
		return AddOutboxEvent(tx, EntityHackathon, h.ID, OpUpsert, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("🙋 user %s enrolled in hackathon %s", userID, h.ID)
	if s.Audit != nil {
		if err := s.Audit.Record(ctx, AuditRecord{
			Action:       models.AuditParticipantEnrolled,
			ActorID:      userID,
			TargetUserID: ref(userID),
			HackathonID:  ref(h.ID),
		}); err != nil {
			logger.Error.Printf("❌ audit %s by %s: %v", models.AuditParticipantEnrolled, userID, err)
		}
	}
	return e, nil
}
