package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/metrics"
	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

func (w *SyncWorker) RetryDLQ(ctx context.Context) {
	ticker := time.NewTicker(orDefault(w.RetryInterval, 30*time.Second))
	defer ticker.Stop()

	limit := w.RetryBatch
	if limit <= 0 {
		limit = 50
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dlqs, err := PendingDLQ(ctx, w.DB, limit)
			if err != nil {
				logger.Error.Printf("DLQ fetch error: %v", err)
				continue
			}
			for _, d := range dlqs {
				if err := w.RetryOne(ctx, d); err != nil {
					logger.Error.Printf("DLQ id=%d still failing: %v", d.ID, err)
				}
			}
		}
	}
}

// RetryOne replays a DLQ row with its stored payload. The row is marked
// resolved on success; otherwise its attempt counter and error are updated.
func (w *SyncWorker) RetryOne(ctx context.Context, d models.DLQ) error {
	logger.Info.Printf("♻️ Retrying DLQ id=%d entity=%s op=%s", d.ID, d.EntityType, d.Op)
	now := time.Now()

	err := w.replay(ctx, d)
	if err != nil {
		w.DB.WithContext(ctx).Model(&models.DLQ{}).Where("id = ?", d.ID).Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"error_msg":  err.Error(),
			"retried_at": &now,
		})
		return err
	}

	if err := w.DB.WithContext(ctx).Model(&models.DLQ{}).Where("id = ?", d.ID).Updates(map[string]any{
		"resolved":   true,
		"attempts":   gorm.Expr("attempts + 1"),
		"retried_at": &now,
	}).Error; err != nil {
		return err
	}
	metrics.ProcessedEvents.Inc()
	logger.Info.Printf("✅ DLQ id=%d resolved", d.ID)
	return nil
}

func (w *SyncWorker) replay(ctx context.Context, d models.DLQ) error {
	ob, err := eventFromDLQ(d)
	if err != nil {
		return err
	}
	bi, err := w.newBulkIndexer()
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		failed string
	)
	onFail := func(msg string) {
		mu.Lock()
		failed = msg
		mu.Unlock()
	}
	applyErr := w.applyEvent(ctx, bi, ob, onFail)
	if bi != nil {
		if err := bi.Close(ctx); err != nil && applyErr == nil {
			applyErr = err
		}
	}
	if applyErr != nil {
		return applyErr
	}

	mu.Lock()
	defer mu.Unlock()
	if failed != "" {
		return errors.New(failed)
	}
	return nil
}
