package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleJudge       Role = "judge"
	RoleParticipant Role = "participant"
)

type HackathonStatus string

const (
	HackathonDraft     HackathonStatus = "draft"
	HackathonActive    HackathonStatus = "active"
	HackathonCompleted HackathonStatus = "completed"
	HackathonCancelled HackathonStatus = "cancelled"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ---------------- USERS ----------------
type User struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string                      `gorm:"not null" json:"name"`
	Email         string                      `gorm:"uniqueIndex;not null" json:"email"`
	Role          Role                        `gorm:"type:varchar(16);index;not null" json:"role"`
	EmailVerified bool                        `gorm:"default:false" json:"email_verified"`
	Skills        datatypes.JSONSlice[string] `json:"skills"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ---------------- HACKATHONS ----------------
type Hackathon struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title               string          `gorm:"not null" json:"title"`
	Description         string          `json:"description"`
	Status              HackathonStatus `gorm:"type:varchar(16);index;default:'draft'" json:"status"`
	StartAt             time.Time       `json:"start_at"`
	EndAt               time.Time       `json:"end_at"`
	AssignmentStartAt   time.Time       `gorm:"not null" json:"assignment_start_at"`
	AssignmentEndAt     time.Time       `gorm:"not null" json:"assignment_end_at"`
	SubmissionDeadline  time.Time       `gorm:"not null" json:"submission_deadline"`
	MaxParticipants     int             `gorm:"default:100" json:"max_participants"`
	TasksPerParticipant int             `gorm:"default:1" json:"tasks_per_participant"`
	CreatedBy           uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (h *Hackathon) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Enrollment is one row of a hackathon's enrolled participant set.
type Enrollment struct {
	HackathonID uuid.UUID `gorm:"type:uuid;primaryKey" json:"hackathon_id"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// ---------------- TASKS ----------------
type Task struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	HackathonID   uuid.UUID                   `gorm:"type:uuid;index;not null" json:"hackathon_id"`
	Title         string                      `gorm:"not null" json:"title"`
	Description   string                      `json:"description"`
	Difficulty    Difficulty                  `gorm:"type:varchar(8);default:'medium'" json:"difficulty"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Points        int                         `gorm:"default:100" json:"points"`
	AssignedCount int                         `gorm:"default:0;not null" json:"assigned_count"`
	IsAssigned    bool                        `gorm:"default:false;not null" json:"is_assigned"`
	CreatedBy     uuid.UUID                   `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ---------------- SUBMISSIONS ----------------
type Submission struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"assignment_id"`
	ParticipantID uuid.UUID  `gorm:"type:uuid;index;not null" json:"participant_id"`
	TaskID        uuid.UUID  `gorm:"type:uuid;not null" json:"task_id"`
	HackathonID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"hackathon_id"`
	URL           string     `gorm:"not null" json:"url"`
	Description   string     `json:"description"`
	IsLate        bool       `gorm:"default:false" json:"is_late"`
	IsLatest      bool       `gorm:"default:true" json:"is_latest"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Score         *int       `json:"score,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	EvaluatedBy   *uuid.UUID `gorm:"type:uuid" json:"evaluated_by,omitempty"`
	EvaluatedAt   *time.Time `json:"evaluated_at,omitempty"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ---------------- AUDIT ----------------
type AuditAction string

const (
	AuditTaskAssigned        AuditAction = "task_assigned"
	AuditTaskReassigned      AuditAction = "task_reassigned"
	AuditTaskUnassigned      AuditAction = "task_unassigned"
	AuditSubmissionCreated   AuditAction = "submission_created"
	AuditSubmissionEvaluated AuditAction = "submission_evaluated"
	AuditParticipantEnrolled AuditAction = "participant_enrolled"
)

type AuditLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action       AuditAction    `gorm:"type:varchar(32);index:idx_audit_hackathon_action,priority:2;not null" json:"action"`
	ActorID      uuid.UUID      `gorm:"type:uuid;index;not null" json:"actor_id"`
	TargetUserID *uuid.UUID     `gorm:"type:uuid" json:"target_user_id,omitempty"`
	HackathonID  *uuid.UUID     `gorm:"type:uuid;index:idx_audit_hackathon_action,priority:1" json:"hackathon_id,omitempty"`
	TaskID       *uuid.UUID     `gorm:"type:uuid" json:"task_id,omitempty"`
	AssignmentID *uuid.UUID     `gorm:"type:uuid" json:"assignment_id,omitempty"`
	Details      datatypes.JSON `json:"details,omitempty"`
	SourceIP     string         `json:"source_ip,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ---------------- OUTBOX (for async side effects) ----------------
type Outbox struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	EntityType string    `gorm:"index;not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null"`
	Op         string    `gorm:"not null"` // UPSERT | DELETE | TASK_ASSIGNED
	Payload    datatypes.JSON
	CreatedAt  time.Time
	Processed  bool `gorm:"default:false"`
}
