// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/db"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// SQLite returns a migrated in-memory database private to the test.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	g, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(g))

	t.Cleanup(func() {
		if sqlDB, err := g.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return g
}

// Fixture is an active hackathon with an open assignment window.
type Fixture struct {
	Now       time.Time
	Admin     models.User
	Hackathon models.Hackathon

	stamp time.Time
}

func NewFixture(t *testing.T, g *gorm.DB, tasksPerParticipant int) *Fixture {
	t.Helper()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	admin := models.User{Name: "admin", Email: uuid.NewString() + "@example.com", Role: models.RoleAdmin, EmailVerified: true}
	require.NoError(t, g.Create(&admin).Error)

	h := models.Hackathon{
		Title:               "Spring Jam",
		Status:              models.HackathonActive,
		StartAt:             now.Add(-time.Hour),
		EndAt:               now.Add(48 * time.Hour),
		AssignmentStartAt:   now.Add(-time.Hour),
		AssignmentEndAt:     now.Add(24 * time.Hour),
		SubmissionDeadline:  now.Add(36 * time.Hour),
		MaxParticipants:     10,
		TasksPerParticipant: tasksPerParticipant,
		CreatedBy:           admin.ID,
	}
	require.NoError(t, g.Create(&h).Error)

	return &Fixture{Now: now, Admin: admin, Hackathon: h, stamp: now.Add(-24 * time.Hour)}
}

// Participant creates a verified participant. Creation times are spaced so
// listing order matches call order.
func (f *Fixture) Participant(t *testing.T, g *gorm.DB, skills ...string) models.User {
	t.Helper()
	f.stamp = f.stamp.Add(time.Millisecond)
	u := models.User{
		Name:          "p",
		Email:         uuid.NewString() + "@example.com",
		Role:          models.RoleParticipant,
		EmailVerified: true,
		Skills:        skills,
		CreatedAt:     f.stamp,
	}
	require.NoError(t, g.Create(&u).Error)
	return u
}

func (f *Fixture) Task(t *testing.T, g *gorm.DB, title string, tags ...string) models.Task {
	t.Helper()
	f.stamp = f.stamp.Add(time.Millisecond)
	task := models.Task{
		HackathonID: f.Hackathon.ID,
		Title:       title,
		Tags:        tags,
		CreatedBy:   f.Admin.ID,
		CreatedAt:   f.stamp,
	}
	require.NoError(t, g.Create(&task).Error)
	return task
}
