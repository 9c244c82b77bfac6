// internal/workers/sync_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/elastic"
	"github.com/sirdesai22/hackathon-tasks/internal/metrics"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
	"github.com/sirdesai22/hackathon-tasks/internal/notify"
	"github.com/sirdesai22/hackathon-tasks/internal/services"
)

// SyncWorker drains the outbox: search entities go to Elasticsearch,
// notification events go to the notify.Sender.
type SyncWorker struct {
	DB *gorm.DB
	// ES is optional; search events are acknowledged without indexing when nil.
	ES     *es.Client
	Sender notify.Sender

	Interval      time.Duration
	BatchSize     int
	RetryInterval time.Duration
	RetryBatch    int
}

func (w *SyncWorker) Run(ctx context.Context) error {
	if w.ES != nil {
		if err := elastic.EnsureIndexes(ctx, w.ES); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	ticker := time.NewTicker(orDefault(w.Interval, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				logger.Error.Printf("worker error: %v", err)
			}
		}
	}
}

// ProcessOnce handles one outbox batch and returns how many events were
// routed without an immediate error.
func (w *SyncWorker) ProcessOnce(ctx context.Context) (int, error) {
	limit := w.BatchSize
	if limit <= 0 {
		limit = 200
	}
	batch, err := FetchOutboxBatch(ctx, w.DB, limit)
	if err != nil {
		return 0, err
	}
	if len(batch.Events) == 0 {
		return 0, nil
	}

	bi, err := w.newBulkIndexer()
	if err != nil {
		return 0, err
	}

	ok := 0
	for _, e := range batch.Events {
		if err := w.applyEvent(ctx, bi, e, w.deadLetter(e)); err != nil {
			// already marked processed; the DLQ owns it from here
			w.deadLetter(e)(err.Error())
			logger.Error.Printf("DLQ outbox_id=%d: %v", e.ID, err)
			continue
		}
		metrics.ProcessedEvents.Inc()
		ok++
	}

	if bi != nil {
		if err := bi.Close(ctx); err != nil {
			return ok, err
		}
		stats := bi.Stats()
		logger.Debug.Printf("bulk ok=%d failed=%d", stats.NumFlushed, stats.NumFailed)
	}
	return ok, nil
}

func (w *SyncWorker) newBulkIndexer() (esutil.BulkIndexer, error) {
	if w.ES == nil {
		return nil, nil
	}
	return esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: w.ES, Index: "", FlushBytes: 5 << 20, NumWorkers: 2,
	})
}

// applyEvent routes one event. Indexing failures surface asynchronously
// through onFail once the bulk indexer flushes.
func (w *SyncWorker) applyEvent(ctx context.Context, bi esutil.BulkIndexer, e models.Outbox, onFail func(string)) error {
	if e.EntityType == services.EntityNotification {
		return w.deliver(ctx, e)
	}

	index, ok := entityIndex[e.EntityType]
	if !ok {
		return fmt.Errorf("unknown entity_type=%s", e.EntityType)
	}
	if bi == nil {
		logger.Debug.Printf("search disabled, dropping %s %s", e.EntityType, e.EntityID)
		return nil
	}
	if e.Op == services.OpDelete {
		return w.add(ctx, bi, index, e, "delete", nil, onFail)
	}

	doc, err := w.buildDoc(ctx, e)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// row removed before the outbox drained; drop any stale document
		logger.Debug.Printf("%s %s no longer exists, deleting from %s", e.EntityType, e.EntityID, index)
		return w.add(ctx, bi, index, e, "delete", nil, onFail)
	}
	if err != nil {
		return err
	}
	return w.add(ctx, bi, index, e, "index", doc, onFail)
}

func (w *SyncWorker) buildDoc(ctx context.Context, e models.Outbox) ([]byte, error) {
	q := w.DB.WithContext(ctx)
	switch e.EntityType {
	case services.EntityUser:
		var u models.User
		if err := q.First(&u, "id = ?", e.EntityID).Error; err != nil {
			return nil, err
		}
		return elastic.BuildUserDoc(u)

	case services.EntityHackathon:
		var h models.Hackathon
		if err := q.First(&h, "id = ?", e.EntityID).Error; err != nil {
			return nil, err
		}
		var enrolled int64
		if err := q.Model(&models.Enrollment{}).Where("hackathon_id = ?", h.ID).Count(&enrolled).Error; err != nil {
			return nil, err
		}
		return elastic.BuildHackathonDoc(h, enrolled)

	case services.EntityAssignment:
		var (
			a models.Assignment
			t models.Task
			p models.User
			h models.Hackathon
		)
		if err := q.First(&a, "id = ?", e.EntityID).Error; err != nil {
			return nil, err
		}
		if err := q.First(&t, "id = ?", a.TaskID).Error; err != nil {
			return nil, err
		}
		if err := q.First(&p, "id = ?", a.ParticipantID).Error; err != nil {
			return nil, err
		}
		if err := q.First(&h, "id = ?", a.HackathonID).Error; err != nil {
			return nil, err
		}
		return elastic.BuildAssignmentDoc(a, t, p, h)

	case services.EntityAudit:
		var l models.AuditLog
		if err := q.First(&l, "id = ?", e.EntityID).Error; err != nil {
			return nil, err
		}
		return elastic.BuildAuditDoc(l)
	}
	return nil, fmt.Errorf("unknown entity_type=%s", e.EntityType)
}

func (w *SyncWorker) deliver(ctx context.Context, e models.Outbox) error {
	if w.Sender == nil {
		return errors.New("no notification sender configured")
	}
	var n notify.Notice
	if err := json.Unmarshal(e.Payload, &n); err != nil {
		return fmt.Errorf("decode notice: %w", err)
	}
	if err := w.Sender.Send(ctx, n); err != nil {
		return fmt.Errorf("send notice via %s: %w", w.Sender.Driver(), err)
	}
	metrics.NotificationsSent.WithLabelValues(w.Sender.Driver()).Inc()
	return nil
}

func (w *SyncWorker) add(ctx context.Context, bi esutil.BulkIndexer, index string, e models.Outbox, action string, body []byte, onFail func(string)) error {
	docID := e.EntityID.String()
	item := esutil.BulkIndexerItem{
		Action:     action,
		DocumentID: docID,
		Index:      index,
		OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
			logger.Debug.Printf("✅ synced %s id=%s", index, docID)
		},
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			if err == nil && action == "delete" && res.Status == http.StatusNotFound {
				logger.Debug.Printf("%s id=%s already absent", index, docID)
				return
			}
			msg := ""
			switch {
			case err != nil:
				msg = err.Error()
			case res.Error.Reason != "":
				msg = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
			default:
				msg = fmt.Sprintf("status=%d failed to index", res.Status)
			}
			logger.Error.Printf("index=%s id=%s reason=%s", index, docID, msg)
			onFail(msg)
		},
	}

	if len(body) > 0 {
		item.Body = bytes.NewReader(body)
	}
	return bi.Add(ctx, item)
}

func (w *SyncWorker) deadLetter(e models.Outbox) func(string) {
	return func(msg string) {
		metrics.FailedEvents.Inc()
		PutDLQ(w.DB, e, msg)
	}
}

var entityIndex = map[string]string{
	services.EntityUser:       elastic.IdxUsers,
	services.EntityHackathon:  elastic.IdxHackathons,
	services.EntityAssignment: elastic.IdxAssignments,
	services.EntityAudit:      elastic.IdxAudit,
}

func eventFromDLQ(d models.DLQ) (models.Outbox, error) {
	id, err := uuid.Parse(d.EntityID)
	if err != nil {
		return models.Outbox{}, fmt.Errorf("dlq %d: bad entity id: %w", d.ID, err)
	}
	return models.Outbox{
		ID:         d.OutboxID,
		EntityType: d.EntityType,
		EntityID:   id,
		Op:         d.Op,
		Payload:    d.Payload,
	}, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
