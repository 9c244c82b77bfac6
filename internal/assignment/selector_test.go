package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type fakeTasks []models.Task

func (f fakeTasks) TasksByHackathon(context.Context, uuid.UUID) ([]models.Task, error) {
	return f, nil
}

type fakeParticipants struct {
	users []models.User
	err   error
}

func (f fakeParticipants) VerifiedParticipants(context.Context, uuid.UUID) ([]models.User, error) {
	return f.users, f.err
}

type fakeLedger struct {
	held  map[uuid.UUID]int64
	pairs PairSet
}

func (f fakeLedger) CountsByParticipant(context.Context, uuid.UUID) (map[uuid.UUID]int64, error) {
	return f.held, nil
}

func (f fakeLedger) ExistingPairs(context.Context, uuid.UUID) (PairSet, error) {
	return f.pairs, nil
}

func TestSelector_Select(t *testing.T) {
	ctx := context.Background()
	h := &models.Hackathon{ID: uuid.New(), TasksPerParticipant: 2}
	tasks := fakeTasks{task("a"), task("b")}
	full, partial, fresh := participant(), participant(), participant()

	t.Run("drops saturated participants and keeps order", func(t *testing.T) {
		s := &Selector{
			Tasks:        tasks,
			Participants: fakeParticipants{users: []models.User{full, partial, fresh}},
			Ledger: fakeLedger{
				held:  map[uuid.UUID]int64{full.ID: 2, partial.ID: 1},
				pairs: NewPairSet(Pair{ParticipantID: partial.ID, TaskID: tasks[0].ID}),
			},
		}

		c, err := s.Select(ctx, h)

		require.NoError(t, err)
		require.Len(t, c.Participants, 2)
		assert.Equal(t, partial.ID, c.Participants[0].ID)
		assert.Equal(t, fresh.ID, c.Participants[1].ID)
		assert.Len(t, c.Tasks, 2)
		assert.Equal(t, 1, c.QuotaOf(partial.ID))
		assert.Equal(t, 2, c.QuotaOf(fresh.ID))
		assert.True(t, c.Existing.Has(partial.ID, tasks[0].ID))
	})

	t.Run("no tasks", func(t *testing.T) {
		s := &Selector{
			Tasks:        fakeTasks{},
			Participants: fakeParticipants{users: []models.User{fresh}},
			Ledger:       fakeLedger{},
		}

		_, err := s.Select(ctx, h)

		require.ErrorIs(t, err, ErrInsufficientTasks)
	})

	t.Run("no verified participants", func(t *testing.T) {
		s := &Selector{Tasks: tasks, Participants: fakeParticipants{}, Ledger: fakeLedger{}}

		_, err := s.Select(ctx, h)

		require.ErrorIs(t, err, ErrNoEligibleParticipants)
		assert.NotErrorIs(t, err, ErrAllSaturated)
	})

	t.Run("everyone at quota", func(t *testing.T) {
		s := &Selector{
			Tasks:        tasks,
			Participants: fakeParticipants{users: []models.User{full}},
			Ledger:       fakeLedger{held: map[uuid.UUID]int64{full.ID: 2}},
		}

		_, err := s.Select(ctx, h)

		require.ErrorIs(t, err, ErrAllSaturated)
		require.ErrorIs(t, err, ErrNoEligibleParticipants)
	})

	t.Run("source errors are wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		s := &Selector{Tasks: tasks, Participants: fakeParticipants{err: boom}, Ledger: fakeLedger{}}

		_, err := s.Select(ctx, h)

		require.ErrorIs(t, err, boom)
	})
}
