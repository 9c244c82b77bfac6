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
	"github.com/sirdesai22/hackathon-tasks/internal/metrics"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/store"
)

// BatchResult reports what a batch run produced versus what it persisted.
type BatchResult struct {
	Requested   int                 `json:"requested"`
	Created     int                 `json:"created"`
	Skipped     int                 `json:"skipped"`
	Assignments []models.Assignment `json:"assignments"`
}

// CandidateSelector computes the batch input for a hackathon.
type CandidateSelector interface {
	Select(ctx context.Context, h *models.Hackathon) (*assignment.Candidates, error)
}

type AssignmentOptions struct {
	// EnrolledOnly restricts batch candidates to users enrolled in the hackathon.
	EnrolledOnly bool
	// Seed makes Random batches reproducible when set.
	Seed *uint64
}

// AssignmentService is the use-case layer over the ledger. Callers are
// expected to have authorized the actor already.
type AssignmentService struct {
	DB           *gorm.DB
	Ledger       *ledger.Ledger
	Hackathons   *store.Hackathons
	Tasks        *store.Tasks
	Participants *store.Participants
	// Selector overrides the default selector over the stores and ledger.
	Selector     CandidateSelector
	Audit        AuditSink
	Notifier     Notifier
	Now          func() time.Time
	Seed         *uint64
}

func NewAssignmentService(db *gorm.DB, opts AssignmentOptions) *AssignmentService {
	return &AssignmentService{
		DB:           db,
		Ledger:       ledger.New(db),
		Hackathons:   &store.Hackathons{DB: db},
		Tasks:        &store.Tasks{DB: db},
		Participants: &store.Participants{DB: db, EnrolledOnly: opts.EnrolledOnly},
		Audit:        &OutboxAuditSink{DB: db},
		Notifier:     &OutboxNotifier{DB: db},
		Now:          time.Now,
		Seed:         opts.Seed,
	}
}

func (s *AssignmentService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// AssignManual gives one task to one participant. Every precondition is
// checked before the ledger is touched; a duplicate pair is returned as is.
func (s *AssignmentService) AssignManual(ctx context.Context, hackathonID, taskID, participantID, actorID uuid.UUID) (*models.Assignment, error) {
	h, err := s.openHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	task, err := s.Tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.HackathonID != h.ID {
		return nil, fmt.Errorf("task %s in hackathon %s: %w", taskID, h.ID, assignment.ErrNotFound)
	}

	p, err := s.participant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if !p.EmailVerified {
		return nil, fmt.Errorf("participant %s: %w", p.ID, assignment.ErrParticipantNotVerified)
	}

	held, err := s.Ledger.CountForParticipant(ctx, h.ID, p.ID)
	if err != nil {
		return nil, err
	}
	exists, err := s.Ledger.Exists(ctx, h.ID, task.ID, p.ID)
	if err != nil {
		return nil, err
	}
	existing := assignment.NewPairSet()
	if exists {
		existing.Add(p.ID, task.ID)
	}

	allocs, err := assignment.Manual{}.Allocate(
		[]models.User{*p}, []models.Task{*task}, existing,
		func(uuid.UUID) int { return assignment.RemainingQuota(h, held) },
	)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, h, allocs[0], models.MethodManual, actorID)
}

func (s *AssignmentService) AssignRandom(ctx context.Context, hackathonID, actorID uuid.UUID) (*BatchResult, error) {
	return s.assignBatch(ctx, models.MethodRandom, hackathonID, actorID)
}

func (s *AssignmentService) AssignSmart(ctx context.Context, hackathonID, actorID uuid.UUID) (*BatchResult, error) {
	return s.assignBatch(ctx, models.MethodSmart, hackathonID, actorID)
}

func (s *AssignmentService) assignBatch(ctx context.Context, method models.AssignmentMethod, hackathonID, actorID uuid.UUID) (*BatchResult, error) {
	h, err := s.openHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Assignments: []models.Assignment{}}

	var sel CandidateSelector = &assignment.Selector{Tasks: s.Tasks, Participants: s.Participants, Ledger: s.Ledger}
	if s.Selector != nil {
		sel = s.Selector
	}
	c, err := sel.Select(ctx, h)
	if errors.Is(err, assignment.ErrAllSaturated) {
		logger.Debug.Printf("hackathon %s: every participant already holds %d task(s)", h.ID, h.TasksPerParticipant)
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	strategy, err := assignment.ForMethod(method, s.Seed)
	if err != nil {
		return nil, err
	}
	allocs, err := strategy.Allocate(c.Participants, c.Tasks, c.Existing, c.QuotaOf)
	if err != nil {
		return nil, err
	}
	result.Requested = len(allocs)

	for _, al := range allocs {
		a, err := s.commit(ctx, h, al, method, actorID)
		if errors.Is(err, assignment.ErrDuplicatePair) {
			result.Skipped++
			metrics.DuplicatesSkipped.WithLabelValues(string(method)).Inc()
			logger.Debug.Printf("⏭️ skipped duplicate pair participant=%s task=%s", al.Participant.ID, al.Task.ID)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("persist %s assignment: %w", method, err)
		}
		result.Created++
		result.Assignments = append(result.Assignments, *a)
	}

	logger.Info.Printf("🎯 %s assignment for hackathon %s: requested=%d created=%d skipped=%d",
		method, h.ID, result.Requested, result.Created, result.Skipped)
	return result, nil
}

// Reassign hands an assigned entry to another participant on the same row.
// The previous holder is kept only in the audit trail.
func (s *AssignmentService) Reassign(ctx context.Context, assignmentID, newParticipantID, actorID uuid.UUID) (*models.Assignment, error) {
	cur, err := s.Ledger.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	h, err := s.openHackathon(ctx, cur.HackathonID)
	if err != nil {
		return nil, err
	}
	p, err := s.participant(ctx, newParticipantID)
	if err != nil {
		return nil, err
	}
	if !cur.Deletable() {
		return nil, fmt.Errorf("assignment %s is %s: %w", cur.ID, cur.Status, assignment.ErrInvalidStateTransition)
	}
	if p.ID != cur.ParticipantID {
		exists, err := s.Ledger.Exists(ctx, cur.HackathonID, cur.TaskID, p.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, assignment.ErrDuplicatePair
		}
	}

	var updated *models.Assignment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.Ledger.WithTx(tx).Reassign(ctx, cur.ID, p.ID, s.now())
		if err != nil {
			return err
		}
		return AddOutboxEvent(tx, EntityAssignment, cur.ID, OpUpsert, nil)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, AuditRecord{
		Action:       models.AuditTaskReassigned,
		ActorID:      actorID,
		TargetUserID: ref(p.ID),
		HackathonID:  ref(h.ID),
		TaskID:       ref(cur.TaskID),
		AssignmentID: ref(cur.ID),
		Details:      map[string]any{"previous_participant_id": cur.ParticipantID},
	})

	task, err := s.Tasks.Get(ctx, cur.TaskID)
	if err != nil {
		logger.Error.Printf("❌ reassign notice for assignment=%s: %v", cur.ID, err)
		return updated, nil
	}
	s.notify(ctx, *updated, *p, *task, *h)
	return updated, nil
}

// Unassign deletes an entry that has not been submitted yet.
func (s *AssignmentService) Unassign(ctx context.Context, assignmentID, actorID uuid.UUID) (*models.Assignment, error) {
	var removed *models.Assignment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = s.Ledger.WithTx(tx).Delete(ctx, assignmentID)
		if err != nil {
			return err
		}
		return AddOutboxEvent(tx, EntityAssignment, assignmentID, OpDelete, nil)
	})
	if err != nil {
		return nil, err
	}
	metrics.AssignmentsRemoved.Inc()

	s.record(ctx, AuditRecord{
		Action:       models.AuditTaskUnassigned,
		ActorID:      actorID,
		TargetUserID: ref(removed.ParticipantID),
		HackathonID:  ref(removed.HackathonID),
		TaskID:       ref(removed.TaskID),
		AssignmentID: ref(removed.ID),
		Details:      map[string]any{"method": removed.Method},
	})
	return removed, nil
}

func (s *AssignmentService) ListByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]models.Assignment, error) {
	if _, err := s.Hackathons.Get(ctx, hackathonID); err != nil {
		return nil, err
	}
	return s.Ledger.ListByHackathon(ctx, hackathonID)
}

func (s *AssignmentService) ListForParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Assignment, error) {
	return s.Ledger.ListByParticipant(ctx, participantID)
}

func (s *AssignmentService) openHackathon(ctx context.Context, id uuid.UUID) (*models.Hackathon, error) {
	h, err := s.Hackathons.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !assignment.CanAssign(h, s.now()) {
		return nil, fmt.Errorf("hackathon %s: %w", id, assignment.ErrAssignmentWindowClosed)
	}
	return h, nil
}

func (s *AssignmentService) participant(ctx context.Context, id uuid.UUID) (*models.User, error) {
	p, err := s.Participants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleParticipant {
		return nil, fmt.Errorf("user %s is not a participant: %w", id, assignment.ErrNotFound)
	}
	return p, nil
}

// commit persists one pair with its counter bump and search event, then
// fires the audit and notification side effects.
func (s *AssignmentService) commit(ctx context.Context, h *models.Hackathon, al assignment.Allocation, method models.AssignmentMethod, actorID uuid.UUID) (*models.Assignment, error) {
	a := &models.Assignment{
		HackathonID:   h.ID,
		TaskID:        al.Task.ID,
		ParticipantID: al.Participant.ID,
		Method:        method,
		AssignedBy:    actorID,
		AssignedAt:    s.now(),
		Status:        models.StatusAssigned,
		MatchScore:    al.MatchScore,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Ledger.WithTx(tx).Insert(ctx, a); err != nil {
			return err
		}
		return AddOutboxEvent(tx, EntityAssignment, a.ID, OpUpsert, nil)
	})
	if err != nil {
		return nil, err
	}
	metrics.AssignmentsCreated.WithLabelValues(string(method)).Inc()

	details := map[string]any{"method": method, "task_title": al.Task.Title}
	if a.MatchScore != nil {
		details["match_score"] = *a.MatchScore
	}
	s.record(ctx, AuditRecord{
		Action:       models.AuditTaskAssigned,
		ActorID:      actorID,
		TargetUserID: ref(a.ParticipantID),
		HackathonID:  ref(h.ID),
		TaskID:       ref(a.TaskID),
		AssignmentID: ref(a.ID),
		Details:      details,
	})
	s.notify(ctx, *a, al.Participant, al.Task, *h)
	return a, nil
}

func (s *AssignmentService) record(ctx context.Context, rec AuditRecord) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, rec); err != nil {
		logger.Error.Printf("❌ audit %s by %s: %v", rec.Action, rec.ActorID, err)
	}
}

func (s *AssignmentService) notify(ctx context.Context, a models.Assignment, p models.User, t models.Task, h models.Hackathon) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendTaskAssignedNotice(ctx, a, p, t, h); err != nil {
		logger.Error.Printf("❌ notify participant=%s assignment=%s: %v", p.ID, a.ID, err)
	}
}
