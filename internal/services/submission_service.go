package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/ledger"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/store"
)

type SubmissionService struct {
	DB         *gorm.DB
	Ledger     *ledger.Ledger
	Hackathons *store.Hackathons
	Audit      AuditSink
	Now        func() time.Time
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{
		DB:         db,
		Ledger:     ledger.New(db),
		Hackathons: &store.Hackathons{DB: db},
		Audit:      &OutboxAuditSink{DB: db},
		Now:        time.Now,
	}
}

func (s *SubmissionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Submit records a solution for an assignment held by participantID.
// After the submission deadline the entry moves to late instead of
// submitted. Earlier submissions for the assignment stop being latest.
func (s *SubmissionService) Submit(ctx context.Context, assignmentID, participantID uuid.UUID, url, description string) (*models.Submission, error) {
	a, err := s.Ledger.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.ParticipantID != participantID {
		return nil, assignment.ErrNotOwner
	}
	h, err := s.Hackathons.Get(ctx, a.HackathonID)
	if err != nil {
		return nil, err
	}
	if h.Status != models.HackathonActive {
		return nil, fmt.Errorf("hackathon %s is %s: %w", h.ID, h.Status, assignment.ErrSubmissionClosed)
	}
	if a.Status == models.StatusEvaluated {
		return nil, fmt.Errorf("assignment %s already evaluated: %w", a.ID, assignment.ErrInvalidStateTransition)
	}

	now := s.now()
	sub := &models.Submission{
		AssignmentID:  a.ID,
		ParticipantID: participantID,
		TaskID:        a.TaskID,
		HackathonID:   a.HackathonID,
		URL:           url,
		Description:   description,
		IsLate:        now.After(h.SubmissionDeadline),
		IsLatest:      true,
		SubmittedAt:   now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("assignment_id = ? AND is_latest = ?", a.ID, true).
			Update("is_latest", false).Error; err != nil {
			return fmt.Errorf("demote previous submissions: %w", err)
		}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		if err := s.Ledger.WithTx(tx).MarkSubmitted(ctx, a.ID, sub.ID, sub.IsLate); err != nil {
			return err
		}
		return AddOutboxEvent(tx, EntityAssignment, a.ID, OpUpsert, nil)
	})
	if err != nil {
		return nil, err
	}

	if sub.IsLate {
		logger.Info.Printf("⏰ late submission %s for assignment %s", sub.ID, a.ID)
	}
	s.record(ctx, AuditRecord{
		Action:       models.AuditSubmissionCreated,
		ActorID:      participantID,
		TargetUserID: ref(participantID),
		HackathonID:  ref(a.HackathonID),
		TaskID:       ref(a.TaskID),
		AssignmentID: ref(a.ID),
		Details:      map[string]any{"submission_id": sub.ID, "late": sub.IsLate},
	})
	return sub, nil
}

// Evaluate scores the latest submission of an assignment and closes the
// assignment's lifecycle.
func (s *SubmissionService) Evaluate(ctx context.Context, submissionID, judgeID uuid.UUID, score int, feedback string) (*models.Submission, error) {
	if score < 0 || score > 100 {
		return nil, assignment.ErrInvalidScore
	}

	var sub models.Submission
	err := s.DB.WithContext(ctx).First(&sub, "id = ?", submissionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("submission %s: %w", submissionID, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if !sub.IsLatest {
		return nil, assignment.ErrNotLatest
	}

	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Ledger.WithTx(tx).MarkEvaluated(ctx, sub.AssignmentID, score, feedback); err != nil {
			return err
		}
		if err := tx.Model(&sub).Updates(map[string]any{
			"score":        score,
			"feedback":     feedback,
			"evaluated_by": judgeID,
			"evaluated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update submission: %w", err)
		}
		return AddOutboxEvent(tx, EntityAssignment, sub.AssignmentID, OpUpsert, nil)
	})
	if err != nil {
		return nil, err
	}
	sub.Score = &score
	sub.Feedback = feedback
	sub.EvaluatedBy = &judgeID
	sub.EvaluatedAt = &now

	s.record(ctx, AuditRecord{
		Action:       models.AuditSubmissionEvaluated,
		ActorID:      judgeID,
		TargetUserID: ref(sub.ParticipantID),
		HackathonID:  ref(sub.HackathonID),
		TaskID:       ref(sub.TaskID),
		AssignmentID: ref(sub.AssignmentID),
		Details:      map[string]any{"submission_id": sub.ID, "score": score},
	})
	return &sub, nil
}

func (s *SubmissionService) record(ctx context.Context, rec AuditRecord) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, rec); err != nil {
		logger.Error.Printf("❌ audit %s by %s: %v", rec.Action, rec.ActorID, err)
	}
}
