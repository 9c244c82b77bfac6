package elastic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/testutil"
)

func TestEnsureIndexes(t *testing.T) {
	client, fake := testutil.NewFakeElastic(t)

	require.NoError(t, EnsureIndexes(context.Background(), client))

	assert.ElementsMatch(t, Indexes, fake.Created())
}

func TestBuildAssignmentDoc(t *testing.T) {
	score := 0.5
	a := models.Assignment{
		HackathonID:   uuid.New(),
		TaskID:        uuid.New(),
		ParticipantID: uuid.New(),
		Method:        models.MethodSmart,
		Status:        models.StatusAssigned,
		MatchScore:    &score,
		AssignedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	task := models.Task{Title: "Job queue", Tags: []string{"go"}}
	p := models.User{Name: "Asha"}
	h := models.Hackathon{Title: "DevFest"}

	raw, err := BuildAssignmentDoc(a, task, p, h)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Job queue", doc["task_title"])
	assert.Equal(t, "smart", doc["method"])
	assert.Equal(t, 0.5, doc["match_score"])
	assert.Equal(t, []any{}, doc["participant_skills"])
	assert.NotContains(t, doc, "score")
}

func TestBuildAuditDoc(t *testing.T) {
	id := uuid.New()
	raw, err := BuildAuditDoc(models.AuditLog{
		Action:       models.AuditTaskAssigned,
		ActorID:      uuid.New(),
		AssignmentID: &id,
		Details:      datatypes.JSON(`{"method":"random"}`),
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "task_assigned", doc["action"])
	assert.Equal(t, id.String(), doc["assignment_id"])
	assert.Equal(t, map[string]any{"method": "random"}, doc["details"])
	assert.NotContains(t, doc, "target_user_id")
}
