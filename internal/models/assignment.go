package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentMethod string

const (
	MethodManual AssignmentMethod = "manual"
	MethodRandom AssignmentMethod = "random"
	MethodSmart  AssignmentMethod = "smart"
)

type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusSubmitted AssignmentStatus = "submitted"
	StatusLate      AssignmentStatus = "late"
	StatusEvaluated AssignmentStatus = "evaluated"
)

// Assignment is a ledger entry. The (hackathon, task, participant) triple is
// unique at the storage layer; concurrent batches rely on it.
type Assignment struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	HackathonID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_triple,priority:1;index:idx_assignment_participant,priority:1" json:"hackathon_id"`
	TaskID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_triple,priority:2" json:"task_id"`
	ParticipantID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_triple,priority:3;index:idx_assignment_participant,priority:2" json:"participant_id"`
	Method        AssignmentMethod `gorm:"type:varchar(8);not null" json:"method"`
	AssignedBy    uuid.UUID        `gorm:"type:uuid;not null" json:"assigned_by"`
	AssignedAt    time.Time        `gorm:"not null" json:"assigned_at"`
	Status        AssignmentStatus `gorm:"type:varchar(16);index;not null;default:'assigned'" json:"status"`
	SubmissionID  *uuid.UUID       `gorm:"type:uuid" json:"submission_id,omitempty"`
	Score         *int             `json:"score,omitempty"`
	Remarks       string           `json:"remarks,omitempty"`
	MatchScore    *float64         `json:"match_score,omitempty"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusAssigned
	}
	return nil
}

// Deletable reports whether the entry can still be unassigned.
func (a Assignment) Deletable() bool {
	return a.Status == StatusAssigned
}
