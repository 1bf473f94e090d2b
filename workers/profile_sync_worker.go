package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"pilot-progress-system/logger"
	"pilot-progress-system/services"
)

// RemoteProfile matches the profile service's change feed.
type RemoteProfile struct {
	Login     string    `json:"login"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileUpdater applies a mirrored profile to a pilot.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, p services.Profile) error
}

// ProfileSyncWorker mirrors names and roles from the HR profile service.
type ProfileSyncWorker struct {
	Pilots       ProfileUpdater
	BaseURL      string
	EndpointPath string
	Token        string
	HTTPClient   *http.Client
	log          *logger.Logger

	mu    sync.Mutex
	since time.Time // zero means full backfill
}

func NewProfileSyncWorker(pilots ProfileUpdater, baseURL, token string, client *http.Client, log *logger.Logger) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		Pilots:       pilots,
		BaseURL:      baseURL,
		EndpointPath: "/api/v1/public/profiles",
		Token:        token,
		HTTPClient:   client,
		log:          log.With("worker", "profile-sync"),
	}
}

func (w *ProfileSyncWorker) Job(every time.Duration) services.Job {
	return services.Job{
		Name:  "profile-sync",
		Every: every,
		Run: func(ctx context.Context) error {
			_, err := w.SyncOnce(ctx)
			return err
		},
	}
}

// SyncOnce pulls profiles changed since the last successful run. The cursor
// only advances when every profile of the batch was applied.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	profiles, err := w.fetch(ctx, w.since)
	if err != nil {
		return 0, err
	}
	if len(profiles) == 0 {
		return 0, nil
	}

	latest := w.since
	applied := 0
	var firstErr error
	for _, p := range profiles {
		if p.Login == "" {
			continue
		}
		err := w.Pilots.UpdateProfile(ctx, services.Profile{
			Login:     p.Login,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Role:      p.Role,
		})
		if err != nil {
			w.log.Warn("⚠️ failed to mirror profile", "login", p.Login, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		applied++
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	if firstErr != nil {
		return applied, fmt.Errorf("mirror profiles: %w", firstErr)
	}
	w.since = latest
	w.log.Info("📥 profiles mirrored", "count", applied, "cursor", latest.Format(time.RFC3339))
	return applied, nil
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile service URL '%s': %w", w.BaseURL, err)
	}
	endpoint := base.JoinPath(w.EndpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.Token)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call profile service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("profile service returned %d: %s", resp.StatusCode, body)
	}

	var out profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode profile changes: %w", err)
	}
	return out.Users, nil
}
