package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/services"
	"github.com/sirdesai22/hackathon-tasks/internal/testutil"
)

func TestHackathonSummaryAndTaskLoad(t *testing.T) {
	ctx := context.Background()
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 1)
	p1 := fx.Participant(t, g, "go")
	p2 := fx.Participant(t, g, "rust")
	t1 := fx.Task(t, g, "Go task", "go")
	t2 := fx.Task(t, g, "Rust task", "rust")
	idle := fx.Task(t, g, "Idle task")

	seed := uint64(7)
	svc := services.NewAssignmentService(g, services.AssignmentOptions{Seed: &seed})
	svc.Now = func() time.Time { return fx.Now }

	_, err := svc.AssignManual(ctx, fx.Hackathon.ID, t1.ID, p1.ID, fx.Admin.ID)
	require.NoError(t, err)
	res, err := svc.AssignSmart(ctx, fx.Hackathon.ID, fx.Admin.ID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	assert.Equal(t, p2.ID, res.Assignments[0].ParticipantID)
	assert.Equal(t, t2.ID, res.Assignments[0].TaskID)

	s, err := FromGorm(g)
	require.NoError(t, err)

	sum, err := s.HackathonSummary(ctx, fx.Hackathon.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Participants)
	assert.Equal(t, map[string]int{"assigned": 2}, sum.ByStatus)
	assert.Equal(t, map[string]int{"manual": 1, "smart": 1}, sum.ByMethod)

	loads, err := s.TaskLoad(ctx, fx.Hackathon.ID)
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.Equal(t, []uuid.UUID{t1.ID, t2.ID, idle.ID}, []uuid.UUID{loads[0].TaskID, loads[1].TaskID, loads[2].TaskID})
	for _, l := range loads {
		assert.False(t, l.Drifted(), l.Title)
	}
	assert.Equal(t, 1, loads[0].Live)
	assert.Zero(t, loads[2].Live)

	require.NoError(t, g.Model(&models.Task{}).Where("id = ?", idle.ID).Update("assigned_count", 3).Error)
	loads, err = s.TaskLoad(ctx, fx.Hackathon.ID)
	require.NoError(t, err)
	assert.True(t, loads[2].Drifted())
}

func TestReports_UnknownHackathon(t *testing.T) {
	s, err := FromGorm(testutil.SQLite(t))
	require.NoError(t, err)

	_, err = s.HackathonSummary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, assignment.ErrNotFound)
	_, err = s.TaskLoad(context.Background(), uuid.New())
	assert.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestHackathonSummary_Empty(t *testing.T) {
	g := testutil.SQLite(t)
	fx := testutil.NewFixture(t, g, 1)
	s, err := FromGorm(g)
	require.NoError(t, err)

	sum, err := s.HackathonSummary(context.Background(), fx.Hackathon.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.Empty(t, sum.ByStatus)
}
