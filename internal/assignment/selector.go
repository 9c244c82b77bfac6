package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type TaskSource interface {
	// TasksByHackathon returns every task of the hackathon in a stable order.
	TasksByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]models.Task, error)
}

type ParticipantSource interface {
	// VerifiedParticipants returns email-verified users with the participant
	// role in a stable order.
	VerifiedParticipants(ctx context.Context, hackathonID uuid.UUID) ([]models.User, error)
}

type LedgerReader interface {
	CountsByParticipant(ctx context.Context, hackathonID uuid.UUID) (map[uuid.UUID]int64, error)
	ExistingPairs(ctx context.Context, hackathonID uuid.UUID) (PairSet, error)
}

// Candidates is the input of a batch strategy run.
type Candidates struct {
	Hackathon    *models.Hackathon
	Tasks        []models.Task
	Participants []models.User
	Held         map[uuid.UUID]int64
	Existing     PairSet
}

// QuotaOf returns the remaining quota of a participant as of selection time.
func (c *Candidates) QuotaOf(participantID uuid.UUID) int {
	return RemainingQuota(c.Hackathon, c.Held[participantID])
}

type Selector struct {
	Tasks        TaskSource
	Participants ParticipantSource
	Ledger       LedgerReader
}

// Select loads the task pool and the participants that still need tasks.
// Ordering follows the sources, so a fixed seed reproduces a batch.
func (s *Selector) Select(ctx context.Context, h *models.Hackathon) (*Candidates, error) {
	tasks, err := s.Tasks.TasksByHackathon(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrInsufficientTasks
	}

	held, err := s.Ledger.CountsByParticipant(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	all, err := s.Participants.VerifiedParticipants(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	var needing []models.User
	for _, p := range all {
		if RemainingQuota(h, held[p.ID]) > 0 {
			needing = append(needing, p)
		}
	}
	if len(needing) == 0 {
		if len(all) > 0 {
			return nil, ErrAllSaturated
		}
		return nil, ErrNoEligibleParticipants
	}

	existing, err := s.Ledger.ExistingPairs(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing pairs: %w", err)
	}

	return &Candidates{
		Hackathon:    h,
		Tasks:        tasks,
		Participants: needing,
		Held:         held,
		Existing:     existing,
	}, nil
}
