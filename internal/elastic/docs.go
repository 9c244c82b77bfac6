// internal/elastic/docs.go
package elastic

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

type UserDoc struct {
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	Skills        []string  `json:"skills"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func BuildUserDoc(u models.User) ([]byte, error) {
	return json.Marshal(UserDoc{
		Name: u.Name, Email: u.Email, Role: string(u.Role), EmailVerified: u.EmailVerified,
		Skills: nonNil(u.Skills), UpdatedAt: u.UpdatedAt,
	})
}

type HackathonDoc struct {
	Title               string    `json:"title"`
	Status              string    `json:"status"`
	AssignmentStartAt   time.Time `json:"assignment_start_at"`
	AssignmentEndAt     time.Time `json:"assignment_end_at"`
	SubmissionDeadline  time.Time `json:"submission_deadline"`
	TasksPerParticipant int       `json:"tasks_per_participant"`
	MaxParticipants     int       `json:"max_participants"`
	Enrolled            int64     `json:"enrolled"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func BuildHackathonDoc(h models.Hackathon, enrolled int64) ([]byte, error) {
	return json.Marshal(HackathonDoc{
		Title: h.Title, Status: string(h.Status),
		AssignmentStartAt: h.AssignmentStartAt, AssignmentEndAt: h.AssignmentEndAt,
		SubmissionDeadline: h.SubmissionDeadline, TasksPerParticipant: h.TasksPerParticipant,
		MaxParticipants: h.MaxParticipants, Enrolled: enrolled, UpdatedAt: h.UpdatedAt,
	})
}

// AssignmentDoc denormalizes the ledger entry with its task, participant
// and hackathon so it can be searched on its own.
type AssignmentDoc struct {
	HackathonID       uuid.UUID `json:"hackathon_id"`
	HackathonTitle    string    `json:"hackathon_title"`
	TaskID            uuid.UUID `json:"task_id"`
	TaskTitle         string    `json:"task_title"`
	TaskTags          []string  `json:"task_tags"`
	ParticipantID     uuid.UUID `json:"participant_id"`
	ParticipantName   string    `json:"participant_name"`
	ParticipantSkills []string  `json:"participant_skills"`
	Method            string    `json:"method"`
	Status            string    `json:"status"`
	MatchScore        *float64  `json:"match_score,omitempty"`
	Score             *int      `json:"score,omitempty"`
	AssignedBy        uuid.UUID `json:"assigned_by"`
	AssignedAt        time.Time `json:"assigned_at"`
}

func BuildAssignmentDoc(a models.Assignment, t models.Task, p models.User, h models.Hackathon) ([]byte, error) {
	return json.Marshal(AssignmentDoc{
		HackathonID: a.HackathonID, HackathonTitle: h.Title,
		TaskID: a.TaskID, TaskTitle: t.Title, TaskTags: nonNil(t.Tags),
		ParticipantID: a.ParticipantID, ParticipantName: p.Name, ParticipantSkills: nonNil(p.Skills),
		Method: string(a.Method), Status: string(a.Status),
		MatchScore: a.MatchScore, Score: a.Score,
		AssignedBy: a.AssignedBy, AssignedAt: a.AssignedAt,
	})
}

type AuditDoc struct {
	Action       string          `json:"action"`
	ActorID      uuid.UUID       `json:"actor_id"`
	TargetUserID *uuid.UUID      `json:"target_user_id,omitempty"`
	HackathonID  *uuid.UUID      `json:"hackathon_id,omitempty"`
	TaskID       *uuid.UUID      `json:"task_id,omitempty"`
	AssignmentID *uuid.UUID      `json:"assignment_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	SourceIP     string          `json:"source_ip,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func BuildAuditDoc(l models.AuditLog) ([]byte, error) {
	doc := AuditDoc{
		Action: string(l.Action), ActorID: l.ActorID, TargetUserID: l.TargetUserID,
		HackathonID: l.HackathonID, TaskID: l.TaskID, AssignmentID: l.AssignmentID,
		SourceIP: l.SourceIP, CreatedAt: l.CreatedAt,
	}
	if len(l.Details) > 0 {
		doc.Details = json.RawMessage(l.Details)
	}
	return json.Marshal(doc)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
