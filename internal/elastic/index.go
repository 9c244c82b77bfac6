// internal/elastic/index.go
package elastic

import (
	"bytes"
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
)

const (
	IdxUsers       = "users_v1"
	IdxHackathons  = "hackathons_v1"
	IdxAssignments = "assignments_v1"
	IdxAudit       = "audit_v1"
)

var mappings = map[string]string{
	IdxUsers: `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"name":{"type":"text"},"email":{"type":"keyword"},"role":{"type":"keyword"},
		"email_verified":{"type":"boolean"},"skills":{"type":"keyword"},"updated_at":{"type":"date"}
	}}}`,
	IdxHackathons: `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"title":{"type":"text"},"status":{"type":"keyword"},
		"assignment_start_at":{"type":"date"},"assignment_end_at":{"type":"date"},
		"submission_deadline":{"type":"date"},"tasks_per_participant":{"type":"integer"},
		"max_participants":{"type":"integer"},"enrolled":{"type":"integer"},"updated_at":{"type":"date"}
	}}}`,
	IdxAssignments: `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"hackathon_id":{"type":"keyword"},"hackathon_title":{"type":"text"},
		"task_id":{"type":"keyword"},"task_title":{"type":"text"},"task_tags":{"type":"keyword"},
		"participant_id":{"type":"keyword"},"participant_name":{"type":"text"},"participant_skills":{"type":"keyword"},
		"method":{"type":"keyword"},"status":{"type":"keyword"},"match_score":{"type":"float"},
		"score":{"type":"integer"},"assigned_by":{"type":"keyword"},"assigned_at":{"type":"date"}
	}}}`,
	IdxAudit: `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"action":{"type":"keyword"},"actor_id":{"type":"keyword"},"target_user_id":{"type":"keyword"},
		"hackathon_id":{"type":"keyword"},"task_id":{"type":"keyword"},"assignment_id":{"type":"keyword"},
		"details":{"type":"object","enabled":false},"source_ip":{"type":"keyword"},"created_at":{"type":"date"}
	}}}`,
}

// Indexes lists every index the sync worker writes to.
var Indexes = []string{IdxUsers, IdxHackathons, IdxAssignments, IdxAudit}

func EnsureIndexes(ctx context.Context, c *es.Client) error {
	for _, idx := range Indexes {
		if err := ensure(ctx, c, idx, mappings[idx]); err != nil {
			return err
		}
	}
	return nil
}

func ensure(ctx context.Context, c *es.Client, index, body string) error {
	exists, err := c.Indices.Exists([]string{index}, c.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := c.Indices.Create(index, c.Indices.Create.WithBody(bytes.NewBufferString(body)), c.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
