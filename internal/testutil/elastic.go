package testutil

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/require"
)

// BulkAction is one item received on the fake _bulk endpoint.
type BulkAction struct {
	Action string
	Index  string
	ID     string
	Body   map[string]any
}

// FakeElastic answers the handful of endpoints the sync worker uses.
type FakeElastic struct {
	mu      sync.Mutex
	created []string
	bulk    []BulkAction
	failIDs map[string]bool
	docs    map[string]bool
}

// Reject makes bulk items with this document id fail until Accept is called.
func (f *FakeElastic) Reject(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failIDs[id] = true
}

func (f *FakeElastic) Accept(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failIDs, id)
}

func (f *FakeElastic) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func (f *FakeElastic) Bulk() []BulkAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BulkAction(nil), f.bulk...)
}

func NewFakeElastic(t *testing.T) (*es.Client, *FakeElastic) {
	t.Helper()
	fake := &FakeElastic{failIDs: map[string]bool{}, docs: map[string]bool{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		path := strings.Trim(r.URL.Path, "/")
		switch {
		case path == "":
			w.Write([]byte(`{"version":{"number":"8.19.0"}}`))
		case strings.HasSuffix(path, "_bulk"):
			fake.handleBulk(w, r)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			fake.mu.Lock()
			fake.created = append(fake.created, path)
			fake.mu.Unlock()
			w.Write([]byte(`{"acknowledged":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, fake
}

func (f *FakeElastic) handleBulk(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 5<<20)

	var items []map[string]any
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var meta map[string]map[string]any
		if err := json.Unmarshal(line, &meta); err != nil {
			continue
		}
		for action, m := range meta {
			item := BulkAction{Action: action}
			item.Index, _ = m["_index"].(string)
			item.ID, _ = m["_id"].(string)
			if action != "delete" && scanner.Scan() {
				_ = json.Unmarshal(scanner.Bytes(), &item.Body)
			}

			result := map[string]any{"_index": item.Index, "_id": item.ID, "status": 200}
			key := item.Index + "/" + item.ID
			f.mu.Lock()
			switch {
			case f.failIDs[item.ID]:
				result["status"] = 400
				result["error"] = map[string]any{"type": "mapper_parsing_exception", "reason": "rejected by test"}
			case action == "delete":
				if !f.docs[key] {
					// Elasticsearch answers deletes of unknown documents with 404
					result["status"] = 404
					result["result"] = "not_found"
				}
				delete(f.docs, key)
				f.bulk = append(f.bulk, item)
			default:
				f.docs[key] = true
				f.bulk = append(f.bulk, item)
			}
			f.mu.Unlock()
			items = append(items, map[string]any{action: result})
		}
	}

	json.NewEncoder(w).Encode(map[string]any{"took": 1, "errors": false, "items": items})
}
