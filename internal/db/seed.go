package db

import (
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// Seed inserts a demo admin, three participants, one active hackathon and
// its task pool. It is a no-op when users already exist.
func Seed(db *gorm.DB, now time.Time) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info.Println("🌱 Data already exists, skipping seed.")
		return nil
	}

	// Wrap in a transaction for atomicity
	return db.Transaction(func(tx *gorm.DB) error {
		admin := models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, EmailVerified: true}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		participants := []models.User{
			{Name: "Asha", Email: "asha@example.com", Role: models.RoleParticipant, EmailVerified: true, Skills: []string{"Go", "React", "AI"}},
			{Name: "Ravi", Email: "ravi@example.com", Role: models.RoleParticipant, EmailVerified: true, Skills: []string{"Node", "CSS"}},
			{Name: "Meera", Email: "meera@example.com", Role: models.RoleParticipant, EmailVerified: true, Skills: []string{"Python", "ML"}},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}

		hackathon := models.Hackathon{
			Title:               "DevFest",
			Description:         "Weekend build sprint",
			Status:              models.HackathonActive,
			StartAt:             now,
			EndAt:               now.Add(48 * time.Hour),
			AssignmentStartAt:   now.Add(-time.Hour),
			AssignmentEndAt:     now.Add(24 * time.Hour),
			SubmissionDeadline:  now.Add(47 * time.Hour),
			MaxParticipants:     100,
			TasksPerParticipant: 2,
			CreatedBy:           admin.ID,
		}
		if err := tx.Create(&hackathon).Error; err != nil {
			return err
		}

		tasks := []models.Task{
			{HackathonID: hackathon.ID, Title: "Realtime dashboard", Difficulty: models.DifficultyMedium, Tags: []string{"react", "websocket"}, Points: 100, CreatedBy: admin.ID},
			{HackathonID: hackathon.ID, Title: "Job queue", Difficulty: models.DifficultyHard, Tags: []string{"go", "postgres"}, Points: 150, CreatedBy: admin.ID},
			{HackathonID: hackathon.ID, Title: "Model card generator", Difficulty: models.DifficultyEasy, Tags: []string{"python", "ml"}, Points: 80, CreatedBy: admin.ID},
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return err
		}

		logger.Info.Println("🌱 Sample data inserted successfully.")
		return nil
	})
}
