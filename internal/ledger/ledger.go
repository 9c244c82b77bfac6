// Package ledger persists assignment entries and keeps the task counters
// in step with them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type Ledger struct {
	DB *gorm.DB
}

var _ assignment.LedgerReader = (*Ledger)(nil)

func New(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// WithTx returns a ledger bound to an open transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{DB: tx}
}

var transitions = map[models.AssignmentStatus][]models.AssignmentStatus{
	models.StatusAssigned:  {models.StatusSubmitted, models.StatusLate},
	models.StatusSubmitted: {models.StatusSubmitted, models.StatusLate, models.StatusEvaluated},
	models.StatusLate:      {models.StatusLate, models.StatusEvaluated},
}

// CanTransition reports whether an entry in from may move to to.
// Deletion is not a transition; see Delete.
func CanTransition(from, to models.AssignmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func sourcesOf(to models.AssignmentStatus) []models.AssignmentStatus {
	var from []models.AssignmentStatus
	for src, targets := range transitions {
		for _, t := range targets {
			if t == to {
				from = append(from, src)
			}
		}
	}
	return from
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var a models.Assignment
	err := l.DB.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("assignment %s: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

func (l *Ledger) Exists(ctx context.Context, hackathonID, taskID, participantID uuid.UUID) (bool, error) {
	var count int64
	err := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Where("hackathon_id = ? AND task_id = ? AND participant_id = ?", hackathonID, taskID, participantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return count > 0, nil
}

func (l *Ledger) CountForParticipant(ctx context.Context, hackathonID, participantID uuid.UUID) (int64, error) {
	var count int64
	err := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Where("hackathon_id = ? AND participant_id = ?", hackathonID, participantID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (l *Ledger) CountsByParticipant(ctx context.Context, hackathonID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ParticipantID uuid.UUID
		Count         int64
	}
	err := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Select("participant_id, COUNT(*) AS count").
		Where("hackathon_id = ?", hackathonID).
		Group("participant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments by participant: %w", err)
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ParticipantID] = r.Count
	}
	return counts, nil
}

func (l *Ledger) ExistingPairs(ctx context.Context, hackathonID uuid.UUID) (assignment.PairSet, error) {
	var rows []struct {
		ParticipantID uuid.UUID
		TaskID        uuid.UUID
	}
	err := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Select("participant_id, task_id").
		Where("hackathon_id = ?", hackathonID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment pairs: %w", err)
	}

	pairs := make(assignment.PairSet, len(rows))
	for _, r := range rows {
		pairs.Add(r.ParticipantID, r.TaskID)
	}
	return pairs, nil
}

// Insert writes the entry and bumps its task counter in one transaction.
// A violated triple constraint returns assignment.ErrDuplicatePair.
func (l *Ledger) Insert(ctx context.Context, a *models.Assignment) error {
	return l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			if isDuplicate(err) {
				return assignment.ErrDuplicatePair
			}
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
		return incrementTask(tx, a.TaskID)
	})
}

// Reassign moves an entry still in the assigned state to another
// participant and restamps it.
func (l *Ledger) Reassign(ctx context.Context, id, participantID uuid.UUID, at time.Time) (*models.Assignment, error) {
	res := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, models.StatusAssigned).
		Updates(map[string]any{"participant_id": participantID, "assigned_at": at})
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, assignment.ErrDuplicatePair
		}
		return nil, fmt.Errorf("failed to reassign: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := l.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, assignment.ErrInvalidStateTransition
	}
	return l.Get(ctx, id)
}

// Delete removes an entry that is still in the assigned state and
// decrements its task counter, floored at zero.
func (l *Ledger) Delete(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var removed *models.Assignment
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Assignment
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("assignment %s: %w", id, assignment.ErrNotFound)
			}
			return err
		}
		if !a.Deletable() {
			return assignment.ErrInvalidStateTransition
		}

		res := tx.Where("id = ? AND status = ?", id, models.StatusAssigned).Delete(&models.Assignment{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete assignment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// raced with a submission
			return assignment.ErrInvalidStateTransition
		}
		if err := decrementTask(tx, a.TaskID); err != nil {
			return err
		}
		removed = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// MarkSubmitted links a submission and moves the entry to submitted or late.
func (l *Ledger) MarkSubmitted(ctx context.Context, id, submissionID uuid.UUID, late bool) error {
	to := models.StatusSubmitted
	if late {
		to = models.StatusLate
	}
	return l.transition(ctx, id, to, map[string]any{
		"status":        to,
		"submission_id": submissionID,
	})
}

// MarkEvaluated records the judge's score and remarks.
func (l *Ledger) MarkEvaluated(ctx context.Context, id uuid.UUID, score int, remarks string) error {
	return l.transition(ctx, id, models.StatusEvaluated, map[string]any{
		"status":  models.StatusEvaluated,
		"score":   score,
		"remarks": remarks,
	})
}

func (l *Ledger) transition(ctx context.Context, id uuid.UUID, to models.AssignmentStatus, updates map[string]any) error {
	res := l.DB.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status IN ?", id, sourcesOf(to)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to move assignment to %s: %w", to, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := l.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: cannot move to %s", assignment.ErrInvalidStateTransition, to)
	}
	return nil
}

func (l *Ledger) ListByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]models.Assignment, error) {
	var out []models.Assignment
	err := l.DB.WithContext(ctx).
		Where("hackathon_id = ?", hackathonID).
		Order("assigned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return out, nil
}

func (l *Ledger) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Assignment, error) {
	var out []models.Assignment
	err := l.DB.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("assigned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participant assignments: %w", err)
	}
	return out, nil
}

func incrementTask(tx *gorm.DB, taskID uuid.UUID) error {
	res := tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(map[string]any{
		"assigned_count": gorm.Expr("assigned_count + 1"),
		"is_assigned":    true,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to increment task counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", taskID, assignment.ErrNotFound)
	}
	return nil
}

// decrementTask relies on SET expressions reading pre-update values.
func decrementTask(tx *gorm.DB, taskID uuid.UUID) error {
	res := tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(map[string]any{
		"assigned_count": gorm.Expr("CASE WHEN assigned_count > 0 THEN assigned_count - 1 ELSE 0 END"),
		"is_assigned":    gorm.Expr("assigned_count > 1"),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement task counter: %w", res.Error)
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
