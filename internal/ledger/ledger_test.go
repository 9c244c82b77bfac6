package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/testutil"
)

type testData struct {
	db  *gorm.DB
	l   *Ledger
	fx  *testutil.Fixture
	p1  models.User
	p2  models.User
	t1  models.Task
	t2  models.Task
	ctx context.Context
}

func setup(t *testing.T) *testData {
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 2)
	return &testData{
		db:  g,
		l:   New(g),
		fx:  fx,
		p1:  fx.Participant(t, g),
		p2:  fx.Participant(t, g),
		t1:  fx.Task(t, g, "one"),
		t2:  fx.Task(t, g, "two"),
		ctx: context.Background(),
	}
}

func (td *testData) entry(p models.User, task models.Task) *models.Assignment {
	return &models.Assignment{
		HackathonID:   td.fx.Hackathon.ID,
		TaskID:        task.ID,
		ParticipantID: p.ID,
		Method:        models.MethodManual,
		AssignedBy:    td.fx.Admin.ID,
		AssignedAt:    td.fx.Now,
	}
}

func (td *testData) task(t *testing.T, id uuid.UUID) models.Task {
	var task models.Task
	require.NoError(t, td.db.First(&task, "id = ?", id).Error)
	return task
}

func TestInsert(t *testing.T) {
	td := setup(t)

	t.Run("creates entry and bumps counter", func(t *testing.T) {
		a := td.entry(td.p1, td.t1)
		require.NoError(t, td.l.Insert(td.ctx, a))
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, models.StatusAssigned, a.Status)

		task := td.task(t, td.t1.ID)
		assert.Equal(t, 1, task.AssignedCount)
		assert.True(t, task.IsAssigned)
	})

	t.Run("duplicate triple is rejected without touching the counter", func(t *testing.T) {
		err := td.l.Insert(td.ctx, td.entry(td.p1, td.t1))
		require.ErrorIs(t, err, assignment.ErrDuplicatePair)

		assert.Equal(t, 1, td.task(t, td.t1.ID).AssignedCount)
	})

	t.Run("same task for another participant", func(t *testing.T) {
		require.NoError(t, td.l.Insert(td.ctx, td.entry(td.p2, td.t1)))
		assert.Equal(t, 2, td.task(t, td.t1.ID).AssignedCount)
	})

	t.Run("unknown task rolls back", func(t *testing.T) {
		a := td.entry(td.p1, models.Task{ID: uuid.New()})
		err := td.l.Insert(td.ctx, a)
		require.ErrorIs(t, err, assignment.ErrNotFound)

		exists, err := td.l.Exists(td.ctx, a.HackathonID, a.TaskID, a.ParticipantID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestReaders(t *testing.T) {
	td := setup(t)
	require.NoError(t, td.l.Insert(td.ctx, td.entry(td.p1, td.t1)))
	require.NoError(t, td.l.Insert(td.ctx, td.entry(td.p1, td.t2)))
	require.NoError(t, td.l.Insert(td.ctx, td.entry(td.p2, td.t2)))
	hid := td.fx.Hackathon.ID

	counts, err := td.l.CountsByParticipant(td.ctx, hid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[td.p1.ID])
	assert.Equal(t, int64(1), counts[td.p2.ID])

	n, err := td.l.CountForParticipant(td.ctx, hid, td.p2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pairs, err := td.l.ExistingPairs(td.ctx, hid)
	require.NoError(t, err)
	assert.Len(t, pairs, 3)
	assert.True(t, pairs.Has(td.p2.ID, td.t2.ID))
	assert.False(t, pairs.Has(td.p2.ID, td.t1.ID))

	list, err := td.l.ListByHackathon(td.ctx, hid)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	mine, err := td.l.ListByParticipant(td.ctx, td.p1.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = td.l.Get(td.ctx, uuid.New())
	require.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestDelete(t *testing.T) {
	td := setup(t)

	t.Run("assigned entry is removed and counter floors at zero", func(t *testing.T) {
		a := td.entry(td.p1, td.t1)
		require.NoError(t, td.l.Insert(td.ctx, a))

		removed, err := td.l.Delete(td.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, removed.ID)

		task := td.task(t, td.t1.ID)
		assert.Equal(t, 0, task.AssignedCount)
		assert.False(t, task.IsAssigned)

		_, err = td.l.Get(td.ctx, a.ID)
		require.ErrorIs(t, err, assignment.ErrNotFound)
	})

	t.Run("counter never goes negative", func(t *testing.T) {
		a := td.entry(td.p2, td.t2)
		require.NoError(t, td.l.Insert(td.ctx, a))
		require.NoError(t, td.db.Model(&models.Task{}).Where("id = ?", td.t2.ID).Update("assigned_count", 0).Error)

		_, err := td.l.Delete(td.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, td.task(t, td.t2.ID).AssignedCount)
	})

	t.Run("is_assigned stays while others hold the task", func(t *testing.T) {
		a := td.entry(td.p1, td.t2)
		b := td.entry(td.p2, td.t2)
		require.NoError(t, td.l.Insert(td.ctx, a))
		require.NoError(t, td.l.Insert(td.ctx, b))

		_, err := td.l.Delete(td.ctx, a.ID)
		require.NoError(t, err)

		task := td.task(t, td.t2.ID)
		assert.Equal(t, 1, task.AssignedCount)
		assert.True(t, task.IsAssigned)
	})

	t.Run("submitted entry is kept", func(t *testing.T) {
		a := td.entry(td.p1, td.t1)
		require.NoError(t, td.l.Insert(td.ctx, a))
		require.NoError(t, td.l.MarkSubmitted(td.ctx, a.ID, uuid.New(), false))

		_, err := td.l.Delete(td.ctx, a.ID)
		require.ErrorIs(t, err, assignment.ErrInvalidStateTransition)

		got, err := td.l.Get(td.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, got.Status)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := td.l.Delete(td.ctx, uuid.New())
		require.ErrorIs(t, err, assignment.ErrNotFound)
	})
}

func TestTransitions(t *testing.T) {
	td := setup(t)
	a := td.entry(td.p1, td.t1)
	require.NoError(t, td.l.Insert(td.ctx, a))

	t.Run("cannot evaluate before submission", func(t *testing.T) {
		err := td.l.MarkEvaluated(td.ctx, a.ID, 80, "")
		require.ErrorIs(t, err, assignment.ErrInvalidStateTransition)
	})

	t.Run("late submission", func(t *testing.T) {
		sub := uuid.New()
		require.NoError(t, td.l.MarkSubmitted(td.ctx, a.ID, sub, true))

		got, err := td.l.Get(td.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusLate, got.Status)
		require.NotNil(t, got.SubmissionID)
		assert.Equal(t, sub, *got.SubmissionID)
	})

	t.Run("late cannot go back to submitted", func(t *testing.T) {
		err := td.l.MarkSubmitted(td.ctx, a.ID, uuid.New(), false)
		require.ErrorIs(t, err, assignment.ErrInvalidStateTransition)
	})

	t.Run("evaluation is terminal", func(t *testing.T) {
		require.NoError(t, td.l.MarkEvaluated(td.ctx, a.ID, 92, "solid"))

		got, err := td.l.Get(td.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusEvaluated, got.Status)
		require.NotNil(t, got.Score)
		assert.Equal(t, 92, *got.Score)
		assert.Equal(t, "solid", got.Remarks)

		require.ErrorIs(t, td.l.MarkSubmitted(td.ctx, a.ID, uuid.New(), true), assignment.ErrInvalidStateTransition)
		require.ErrorIs(t, td.l.MarkEvaluated(td.ctx, a.ID, 10, ""), assignment.ErrInvalidStateTransition)
	})

	t.Run("unknown entry", func(t *testing.T) {
		err := td.l.MarkSubmitted(td.ctx, uuid.New(), uuid.New(), false)
		require.ErrorIs(t, err, assignment.ErrNotFound)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusAssigned, models.StatusSubmitted))
	assert.True(t, CanTransition(models.StatusAssigned, models.StatusLate))
	assert.True(t, CanTransition(models.StatusSubmitted, models.StatusSubmitted))
	assert.True(t, CanTransition(models.StatusSubmitted, models.StatusEvaluated))
	assert.True(t, CanTransition(models.StatusLate, models.StatusEvaluated))

	assert.False(t, CanTransition(models.StatusAssigned, models.StatusEvaluated))
	assert.False(t, CanTransition(models.StatusLate, models.StatusSubmitted))
	assert.False(t, CanTransition(models.StatusEvaluated, models.StatusSubmitted))
	assert.False(t, CanTransition(models.StatusEvaluated, models.StatusAssigned))
}

func TestReassign(t *testing.T) {
	td := setup(t)
	a := td.entry(td.p1, td.t1)
	require.NoError(t, td.l.Insert(td.ctx, a))
	later := td.fx.Now.Add(5 * time.Minute)

	t.Run("moves to the new participant", func(t *testing.T) {
		got, err := td.l.Reassign(td.ctx, a.ID, td.p2.ID, later)
		require.NoError(t, err)
		assert.Equal(t, td.p2.ID, got.ParticipantID)
		assert.True(t, got.AssignedAt.Equal(later))
		assert.Equal(t, 1, td.task(t, td.t1.ID).AssignedCount)
	})

	t.Run("collision with existing pair", func(t *testing.T) {
		b := td.entry(td.p1, td.t1)
		require.NoError(t, td.l.Insert(td.ctx, b))

		_, err := td.l.Reassign(td.ctx, b.ID, td.p2.ID, later)
		require.ErrorIs(t, err, assignment.ErrDuplicatePair)
	})

	t.Run("not after submission", func(t *testing.T) {
		require.NoError(t, td.l.MarkSubmitted(td.ctx, a.ID, uuid.New(), false))

		_, err := td.l.Reassign(td.ctx, a.ID, td.p1.ID, later)
		require.ErrorIs(t, err, assignment.ErrInvalidStateTransition)
	})
}
