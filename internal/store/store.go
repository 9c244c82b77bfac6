// Package store holds the gorm read paths the assignment flow depends on.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

var (
	_ assignment.TaskSource        = (*Tasks)(nil)
	_ assignment.ParticipantSource = (*Participants)(nil)
)

type Hackathons struct {
	DB *gorm.DB
}

func (s *Hackathons) Get(ctx context.Context, id uuid.UUID) (*models.Hackathon, error) {
	var h models.Hackathon
	err := s.DB.WithContext(ctx).First(&h, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("hackathon %s: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hackathon: %w", err)
	}
	return &h, nil
}

type Tasks struct {
	DB *gorm.DB
}

func (s *Tasks) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	err := s.DB.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// TasksByHackathon orders by creation time, then id, so batches are
// reproducible under a fixed seed.
func (s *Tasks) TasksByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.WithContext(ctx).
		Where("hackathon_id = ?", hackathonID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Participants resolves the verified participant pool. With EnrolledOnly
// the pool is restricted to users enrolled in the hackathon.
type Participants struct {
	DB           *gorm.DB
	EnrolledOnly bool
}

func (s *Participants) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Participants) VerifiedParticipants(ctx context.Context, hackathonID uuid.UUID) ([]models.User, error) {
	q := s.DB.WithContext(ctx).
		Where("users.role = ? AND users.email_verified = ?", models.RoleParticipant, true)
	if s.EnrolledOnly {
		q = q.Joins("JOIN enrollments ON enrollments.user_id = users.id AND enrollments.hackathon_id = ?", hackathonID)
	}

	var users []models.User
	if err := q.Order("users.created_at ASC, users.id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return users, nil
}
