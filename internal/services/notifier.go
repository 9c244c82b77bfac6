package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/notify"
)

// Notifier tells a participant about a new assignment. Delivery is
// best-effort and never rolls back the assignment.
type Notifier interface {
	SendTaskAssignedNotice(ctx context.Context, a models.Assignment, p models.User, t models.Task, h models.Hackathon) error
}

var _ Notifier = (*OutboxNotifier)(nil)

// OutboxNotifier queues the notice; the sync worker hands it to a notify.Sender.
type OutboxNotifier struct {
	DB *gorm.DB
}

func (n *OutboxNotifier) SendTaskAssignedNotice(ctx context.Context, a models.Assignment, p models.User, t models.Task, h models.Hackathon) error {
	return AddOutboxEvent(n.DB.WithContext(ctx), EntityNotification, p.ID, OpTaskAssigned, NoticeFor(a, p, t, h))
}

func NoticeFor(a models.Assignment, p models.User, t models.Task, h models.Hackathon) notify.Notice {
	return notify.Notice{
		AssignmentID:   a.ID,
		ParticipantID:  p.ID,
		Participant:    p.Name,
		Email:          p.Email,
		TaskID:         t.ID,
		TaskTitle:      t.Title,
		HackathonID:    h.ID,
		HackathonTitle: h.Title,
		Method:         string(a.Method),
		Deadline:       h.SubmissionDeadline,
		AssignedAt:     a.AssignedAt,
	}
}
