package assignment

import (
	"time"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// CanAssign reports whether h accepts new assignments at now. Both window
// bounds are inclusive.
func CanAssign(h *models.Hackathon, now time.Time) bool {
	if h == nil || h.Status != models.HackathonActive {
		return false
	}
	return !now.Before(h.AssignmentStartAt) && !now.After(h.AssignmentEndAt)
}

// RemainingQuota is how many more tasks a participant holding held entries
// may receive in h. Never negative.
func RemainingQuota(h *models.Hackathon, held int64) int {
	remaining := int64(h.TasksPerParticipant) - held
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}
