// Package reports runs read-only aggregate queries over the assignment ledger.
package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/assignment"
	"github.com/sirdesai22/hackathon-tasks/internal/db"
)

type Store struct {
	DB *sqlx.DB
}

// FromGorm shares the gorm connection pool with sqlx.
func FromGorm(g *gorm.DB) (*Store, error) {
	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	driver := "sqlite3"
	if db.IsPostgres(g) {
		driver = "pgx"
	}
	return &Store{DB: sqlx.NewDb(sqlDB, driver)}, nil
}

type bucket struct {
	Key   string `db:"k"`
	Count int    `db:"n"`
}

type Summary struct {
	HackathonID  uuid.UUID      `json:"hackathon_id"`
	Total        int            `json:"total"`
	Participants int            `json:"participants"`
	ByStatus     map[string]int `json:"by_status"`
	ByMethod     map[string]int `json:"by_method"`
}

// HackathonSummary counts ledger entries per status and per method.
func (s *Store) HackathonSummary(ctx context.Context, hackathonID uuid.UUID) (*Summary, error) {
	if err := s.requireHackathon(ctx, hackathonID); err != nil {
		return nil, err
	}

	out := &Summary{HackathonID: hackathonID, ByStatus: map[string]int{}, ByMethod: map[string]int{}}
	for col, dst := range map[string]map[string]int{"status": out.ByStatus, "method": out.ByMethod} {
		var rows []bucket
		query := s.DB.Rebind(fmt.Sprintf(`
			SELECT %s AS k, COUNT(*) AS n
			FROM assignments
			WHERE hackathon_id = ?
			GROUP BY %s`, col, col))
		if err := s.DB.SelectContext(ctx, &rows, query, hackathonID); err != nil {
			return nil, fmt.Errorf("failed to count assignments by %s: %w", col, err)
		}
		for _, r := range rows {
			dst[r.Key] = r.Count
		}
	}
	for _, n := range out.ByStatus {
		out.Total += n
	}

	err := s.DB.GetContext(ctx, &out.Participants, s.DB.Rebind(`
		SELECT COUNT(DISTINCT participant_id)
		FROM assignments
		WHERE hackathon_id = ?`), hackathonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	return out, nil
}

// TaskLoad is one task's cached counter next to its live ledger rows.
type TaskLoad struct {
	TaskID        uuid.UUID `db:"task_id" json:"task_id"`
	Title         string    `db:"title" json:"title"`
	AssignedCount int       `db:"assigned_count" json:"assigned_count"`
	IsAssigned    bool      `db:"is_assigned" json:"is_assigned"`
	Live          int       `db:"live" json:"live"`
}

// Drifted reports a counter that disagrees with the ledger.
func (l TaskLoad) Drifted() bool {
	return l.AssignedCount != l.Live || l.IsAssigned != (l.Live > 0)
}

func (s *Store) TaskLoad(ctx context.Context, hackathonID uuid.UUID) ([]TaskLoad, error) {
	if err := s.requireHackathon(ctx, hackathonID); err != nil {
		return nil, err
	}

	query := s.DB.Rebind(`
		SELECT t.id AS task_id, t.title, t.assigned_count, t.is_assigned,
		       COUNT(a.id) AS live
		FROM tasks t
		LEFT JOIN assignments a ON a.task_id = t.id
		WHERE t.hackathon_id = ?
		GROUP BY t.id, t.title, t.assigned_count, t.is_assigned, t.created_at
		ORDER BY t.created_at, t.id`)

	var loads []TaskLoad
	if err := s.DB.SelectContext(ctx, &loads, query, hackathonID); err != nil {
		return nil, fmt.Errorf("failed to load task counters: %w", err)
	}
	return loads, nil
}

func (s *Store) requireHackathon(ctx context.Context, id uuid.UUID) error {
	var n int
	if err := s.DB.GetContext(ctx, &n, s.DB.Rebind(`SELECT COUNT(*) FROM hackathons WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to look up hackathon: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("hackathon %s: %w", id, assignment.ErrNotFound)
	}
	return nil
}
