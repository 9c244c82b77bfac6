// Package notify delivers task-assigned notices to participants.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

// Notice tells a participant which task they now hold.
type Notice struct {
	AssignmentID   uuid.UUID `json:"assignment_id"`
	ParticipantID  uuid.UUID `json:"participant_id"`
	Participant    string    `json:"participant"`
	Email          string    `json:"email"`
	TaskID         uuid.UUID `json:"task_id"`
	TaskTitle      string    `json:"task_title"`
	HackathonID    uuid.UUID `json:"hackathon_id"`
	HackathonTitle string    `json:"hackathon_title"`
	Method         string    `json:"method"`
	Deadline       time.Time `json:"submission_deadline"`
	AssignedAt     time.Time `json:"assigned_at"`
}

type Sender interface {
	Driver() string
	Send(ctx context.Context, n Notice) error
	Close() error
}

var (
	_ Sender = (*NATSSender)(nil)
	_ Sender = (*RedisSender)(nil)
	_ Sender = (*LogSender)(nil)
)

var ErrUnknownDriver = errors.New("unknown notify driver")

type Config struct {
	Driver   string
	NATSURL  string
	Subject  string
	RedisURL string
	Stream   string
}

// New connects the sender selected by cfg.Driver.
func New(cfg Config) (Sender, error) {
	switch cfg.Driver {
	case "", "log":
		return &LogSender{}, nil
	case "nats":
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("hackathon-tasks"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		logger.Info.Printf("✅ Connected to NATS (%s)", cfg.NATSURL)
		return NewNATSSender(nc, cfg.Subject), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info.Printf("✅ Connected to Redis (%s)", opts.Addr)
		return NewRedisSender(client, cfg.Stream), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}

// NATSSender publishes each notice as JSON on Subject.
type NATSSender struct {
	Conn    *nats.Conn
	Subject string
}

func NewNATSSender(nc *nats.Conn, subject string) *NATSSender {
	if subject == "" {
		subject = "hackathon.task_assigned"
	}
	return &NATSSender{Conn: nc, Subject: subject}
}

func (s *NATSSender) Driver() string { return "nats" }

func (s *NATSSender) Send(ctx context.Context, n Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.Conn.Publish(s.Subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", s.Subject, err)
	}
	// FlushWithContext refuses contexts without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := s.Conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", s.Subject, err)
	}
	return nil
}

const flushTimeout = 5 * time.Second

func (s *NATSSender) Close() error {
	s.Conn.Close()
	return nil
}

// RedisSender appends notices to a Redis stream for a mailer to consume.
type RedisSender struct {
	Client *redis.Client
	Stream string
}

func NewRedisSender(client *redis.Client, stream string) *RedisSender {
	if stream == "" {
		stream = "notifications:task_assigned"
	}
	return &RedisSender{Client: client, Stream: stream}
}

func (s *RedisSender) Driver() string { return "redis" }

func (s *RedisSender) Send(ctx context.Context, n Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	err = s.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.Stream,
		Values: map[string]any{
			"participant_id": n.ParticipantID.String(),
			"email":          n.Email,
			"payload":        string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.Stream, err)
	}
	return nil
}

func (s *RedisSender) Close() error {
	return s.Client.Close()
}

// LogSender only writes the notice to the log.
type LogSender struct{}

func (*LogSender) Driver() string { return "log" }

func (*LogSender) Send(_ context.Context, n Notice) error {
	logger.Info.Printf("📨 %s (%s) assigned %q in %q via %s", n.Participant, n.Email, n.TaskTitle, n.HackathonTitle, n.Method)
	return nil
}

func (*LogSender) Close() error { return nil }
