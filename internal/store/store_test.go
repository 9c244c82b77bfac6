package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/testutil"
)

func TestParticipants_VerifiedParticipants(t *testing.T) {
	ctx := context.Background()
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 1)

	first := fx.Participant(t, g, "go")
	second := fx.Participant(t, g)
	unverified := models.User{Name: "u", Email: "u@example.com", Role: models.RoleParticipant}
	require.NoError(t, g.Create(&unverified).Error)
	judge := models.User{Name: "j", Email: "j@example.com", Role: models.RoleJudge, EmailVerified: true}
	require.NoError(t, g.Create(&judge).Error)

	t.Run("platform wide", func(t *testing.T) {
		s := &Participants{DB: g}
		got, err := s.VerifiedParticipants(ctx, fx.Hackathon.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
		assert.Equal(t, []string{"go"}, []string(got[0].Skills))
	})

	t.Run("enrolled only", func(t *testing.T) {
		require.NoError(t, g.Create(&models.Enrollment{HackathonID: fx.Hackathon.ID, UserID: second.ID, EnrolledAt: fx.Now}).Error)
		require.NoError(t, g.Create(&models.Enrollment{HackathonID: fx.Hackathon.ID, UserID: unverified.ID, EnrolledAt: fx.Now}).Error)

		s := &Participants{DB: g, EnrolledOnly: true}
		got, err := s.VerifiedParticipants(ctx, fx.Hackathon.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})
}

func TestTasks(t *testing.T) {
	ctx := context.Background()
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 1)
	a := fx.Task(t, g, "a", "react")
	b := fx.Task(t, g, "b")

	s := &Tasks{DB: g}
	got, err := s.TasksByHackathon(ctx, fx.Hackathon.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)

	none, err := s.TasksByHackathon(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Get(ctx, uuid.New())
	require.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestHackathons_Get(t *testing.T) {
	ctx := context.Background()
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 3)
	s := &Hackathons{DB: g}

	h, err := s.Get(ctx, fx.Hackathon.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, h.TasksPerParticipant)
	assert.Equal(t, models.HackathonActive, h.Status)

	_, err = s.Get(ctx, uuid.New())
	require.ErrorIs(t, err, assignment.ErrNotFound)
}
