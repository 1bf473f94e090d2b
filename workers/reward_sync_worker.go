package workers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/services"
)

const rewardSyncBatch = 50

// RewardSyncWorker drains the reward outbox into the remote progression
// server. Rows are delivered in queue order; a failed row is retried on the
// next run until it exhausts its attempts.
type RewardSyncWorker struct {
	Store      *services.RewardSyncStore
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	log        *logger.Logger
	now        func() time.Time
}

func NewRewardSyncWorker(store *services.RewardSyncStore, baseURL, token string, client *http.Client, log *logger.Logger) *RewardSyncWorker {
	return &RewardSyncWorker{
		Store:      store,
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: client,
		log:        log.With("worker", "reward-sync"),
		now:        time.Now,
	}
}

// Job exposes the worker to the scheduler.
func (w *RewardSyncWorker) Job(every time.Duration) services.Job {
	return services.Job{
		Name:  "reward-sync",
		Every: every,
		Run: func(ctx context.Context) error {
			_, _, err := w.SyncOnce(ctx)
			return err
		},
	}
}

// SyncOnce delivers one batch of pending rows. Every payload carries the
// pilot's totals, so a pilot's rows go out strictly in order: once one fails,
// the pilot's later rows wait until it is delivered or given up on.
func (w *RewardSyncWorker) SyncOnce(ctx context.Context) (synced, failed int, err error) {
	rows, err := w.Store.Pending(ctx, rewardSyncBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("load pending reward syncs: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	held := make(map[string]bool)
	skipped := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if held[row.PilotLogin] {
			skipped++
			continue
		}
		if sendErr := w.send(ctx, row); sendErr != nil {
			failed++
			held[row.PilotLogin] = true
			w.log.Warn("❌ reward sync failed", "id", row.ID, "login", row.PilotLogin, "attempt", row.Attempts+1, "error", sendErr)
			if err := w.Store.MarkAttemptFailed(ctx, row, sendErr); err != nil {
				return synced, failed, fmt.Errorf("record sync failure %s: %w", row.ID, err)
			}
			continue
		}
		if err := w.Store.MarkSynced(ctx, row.ID, w.now()); err != nil {
			return synced, failed, fmt.Errorf("mark %s synced: %w", row.ID, err)
		}
		synced++
	}

	w.log.Info("📤 reward sync batch done", "synced", synced, "failed", failed, "held", skipped)
	return synced, failed, nil
}

func (w *RewardSyncWorker) send(ctx context.Context, row models.RewardSync) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+"/api/v1/progress/events", bytes.NewBufferString(row.Payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", w.Token)
	req.Header.Set("Idempotency-Key", row.ID)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call progression server: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("progression server returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
