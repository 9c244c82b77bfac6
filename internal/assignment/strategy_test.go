package assignment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

func participant(skills ...string) models.User {
	return models.User{ID: uuid.New(), Role: models.RoleParticipant, EmailVerified: true, Skills: skills}
}

func task(title string, tags ...string) models.Task {
	return models.Task{ID: uuid.New(), Title: title, Tags: tags}
}

func quota(n int) QuotaFunc {
	return func(uuid.UUID) int { return n }
}

func TestMatchScore(t *testing.T) {
	t.Run("partial overlap", func(t *testing.T) {
		assert.InDelta(t, 0.5, MatchScore([]string{"react", "node"}, []string{"react", "css"}), 1e-9)
	})

	t.Run("full overlap", func(t *testing.T) {
		assert.InDelta(t, 1.0, MatchScore([]string{"react", "node"}, []string{"node", "react"}), 1e-9)
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.InDelta(t, 1.0, MatchScore([]string{"React"}, []string{"REACT"}), 1e-9)
	})

	t.Run("substring overlap either way", func(t *testing.T) {
		assert.InDelta(t, 1.0, MatchScore([]string{"java"}, []string{"javascript"}), 1e-9)
		assert.InDelta(t, 1.0, MatchScore([]string{"nodejs"}, []string{"node"}), 1e-9)
	})

	t.Run("divides by larger set", func(t *testing.T) {
		assert.InDelta(t, 0.25, MatchScore([]string{"go"}, []string{"go", "sql", "grpc", "k8s"}), 1e-9)
	})

	t.Run("empty sides score zero", func(t *testing.T) {
		assert.Zero(t, MatchScore(nil, []string{"go"}))
		assert.Zero(t, MatchScore([]string{"go"}, nil))
	})
}

func TestSmart_Allocate(t *testing.T) {
	t.Run("picks the best matching task first", func(t *testing.T) {
		p := participant("react", "node")
		half := task("half", "react", "css")
		full := task("full", "node", "react")

		got, err := Smart{}.Allocate([]models.User{p}, []models.Task{half, full}, NewPairSet(), quota(1))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, full.ID, got[0].Task.ID)
		require.NotNil(t, got[0].MatchScore)
		assert.InDelta(t, 1.0, *got[0].MatchScore, 1e-9)
	})

	t.Run("second pick takes the next best", func(t *testing.T) {
		p := participant("react", "node")
		half := task("half", "react", "css")
		full := task("full", "node", "react")

		got, err := Smart{}.Allocate([]models.User{p}, []models.Task{half, full}, NewPairSet(), quota(2))

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, full.ID, got[0].Task.ID)
		assert.Equal(t, half.ID, got[1].Task.ID)
	})

	t.Run("ties keep enumeration order", func(t *testing.T) {
		p := participant("go")
		first := task("first", "rust")
		second := task("second", "python")

		got, err := Smart{}.Allocate([]models.User{p}, []models.Task{first, second}, NewPairSet(), quota(1))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].Task.ID)
		assert.Zero(t, *got[0].MatchScore)
	})

	t.Run("skips pairs already in the ledger", func(t *testing.T) {
		p := participant("react")
		best := task("best", "react")
		other := task("other", "css")
		existing := NewPairSet(Pair{ParticipantID: p.ID, TaskID: best.ID})

		got, err := Smart{}.Allocate([]models.User{p}, []models.Task{best, other}, existing, quota(1))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, other.ID, got[0].Task.ID)
	})
}

func TestRandom_Allocate(t *testing.T) {
	t.Run("single task pool is exhausted after one pick", func(t *testing.T) {
		p := participant()
		only := task("only")

		got, err := NewRandom(1).Allocate([]models.User{p}, []models.Task{only}, NewPairSet(), quota(2))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, only.ID, got[0].Task.ID)
		assert.Nil(t, got[0].MatchScore)
	})

	t.Run("respects quota and never repeats a pair", func(t *testing.T) {
		tasks := []models.Task{task("a"), task("b"), task("c"), task("d")}
		participants := []models.User{participant(), participant(), participant()}
		existing := NewPairSet()

		got, err := NewRandom(42).Allocate(participants, tasks, existing, quota(2))

		require.NoError(t, err)
		require.Len(t, got, 6)

		perParticipant := map[uuid.UUID]int{}
		seen := map[Pair]bool{}
		for _, a := range got {
			key := Pair{ParticipantID: a.Participant.ID, TaskID: a.Task.ID}
			assert.False(t, seen[key], "pair repeated")
			seen[key] = true
			perParticipant[a.Participant.ID]++
			assert.True(t, existing.Has(a.Participant.ID, a.Task.ID), "pair not recorded")
		}
		for _, p := range participants {
			assert.Equal(t, 2, perParticipant[p.ID])
		}
	})

	t.Run("tasks may go to several participants", func(t *testing.T) {
		only := task("only")
		participants := []models.User{participant(), participant()}

		got, err := NewRandom(7).Allocate(participants, []models.Task{only}, NewPairSet(), quota(1))

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, only.ID, got[0].Task.ID)
		assert.Equal(t, only.ID, got[1].Task.ID)
	})

	t.Run("same seed reproduces the batch", func(t *testing.T) {
		tasks := []models.Task{task("a"), task("b"), task("c"), task("d"), task("e")}
		participants := []models.User{participant(), participant()}

		first, err := NewRandom(99).Allocate(participants, tasks, NewPairSet(), quota(2))
		require.NoError(t, err)
		second, err := NewRandom(99).Allocate(participants, tasks, NewPairSet(), quota(2))
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Task.ID, second[i].Task.ID)
		}
	})

	t.Run("nothing to do yields empty result", func(t *testing.T) {
		p := participant()
		only := task("only")
		existing := NewPairSet(Pair{ParticipantID: p.ID, TaskID: only.ID})

		got, err := (&Random{}).Allocate([]models.User{p}, []models.Task{only}, existing, quota(1))

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestManual_Allocate(t *testing.T) {
	p := participant()
	tk := task("t")

	t.Run("valid pair", func(t *testing.T) {
		existing := NewPairSet()
		got, err := Manual{}.Allocate([]models.User{p}, []models.Task{tk}, existing, quota(1))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, tk.ID, got[0].Task.ID)
		assert.True(t, existing.Has(p.ID, tk.ID))
	})

	t.Run("duplicate pair", func(t *testing.T) {
		existing := NewPairSet(Pair{ParticipantID: p.ID, TaskID: tk.ID})
		_, err := Manual{}.Allocate([]models.User{p}, []models.Task{tk}, existing, quota(1))

		require.ErrorIs(t, err, ErrDuplicatePair)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		_, err := Manual{}.Allocate([]models.User{p}, []models.Task{tk}, NewPairSet(), quota(0))

		require.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("rejects more than one pair", func(t *testing.T) {
		_, err := Manual{}.Allocate([]models.User{p, participant()}, []models.Task{tk}, NewPairSet(), quota(1))

		require.Error(t, err)
	})
}

func TestForMethod(t *testing.T) {
	seed := uint64(3)

	s, err := ForMethod(models.MethodRandom, &seed)
	require.NoError(t, err)
	assert.Equal(t, models.MethodRandom, s.Method())

	s, err = ForMethod(models.MethodSmart, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MethodSmart, s.Method())

	_, err = ForMethod("greedy", nil)
	require.Error(t, err)
}
