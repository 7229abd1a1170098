// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/logger"
	"study-tracker/models"
)

// ProfileUpserter stores mirrored profiles.
type ProfileUpserter interface {
	UpsertProfiles(ctx context.Context, profiles []models.RemoteProfile) (upserted, failed int)
}

// GetUserChangesResponse is the top-level structure of the sync service response.
type GetUserChangesResponse struct {
	Users []models.RemoteProfile `json:"users"`
}

// profileCursor names the SyncState row of this worker.
const profileCursor = "profiles"

// ProfileSyncWorker mirrors username, email and names from the profile
// service into users, incrementally by the remote updated_at.
type ProfileSyncWorker struct {
	db           *gorm.DB
	users        ProfileUpserter
	log          *logger.Logger
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, users ProfileUpserter, log *logger.Logger, syncServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		users:        users,
		log:          log.With("worker", "profile_sync"),
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	w.log.Info("[SYNC] starting profile sync worker")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncBatch(ctx, w.lastSyncTime(ctx)); err != nil {
		w.log.Warn("[SYNC] initial sync failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncBatch(ctx, w.lastSyncTime(ctx)); err != nil {
				w.log.Error("[SYNC] batch failed", "error", err)
			}
		case <-ctx.Done():
			w.log.Info("[SYNC] profile sync worker stopped")
			return
		}
	}
}

// lastSyncTime is the stored cursor: the newest remote updated_at pulled so
// far. Local writes to users never move it.
func (w *ProfileSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	var state models.SyncState
	err := w.db.WithContext(ctx).Where("name = ?", profileCursor).Limit(1).Find(&state).Error
	if err != nil || state.Cursor.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return state.Cursor.UTC()
}

func (w *ProfileSyncWorker) saveCursor(ctx context.Context, cursor time.Time) error {
	state := models.SyncState{Name: profileCursor, Cursor: cursor.UTC()}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"cursor", "updated_at"}),
	}).Create(&state).Error
}

// SyncBatch fetches profiles changed since and upserts them, then advances
// the cursor to the newest remote updated_at in the batch. It returns the
// number of profiles stored.
func (w *ProfileSyncWorker) SyncBatch(ctx context.Context, since time.Time) (int, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("sync service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	if len(response.Users) == 0 {
		return 0, nil
	}

	upserted, failed := w.users.UpsertProfiles(ctx, response.Users)
	w.log.Info("[SYNC] synced profiles", "received", len(response.Users), "upserted", upserted, "errors", failed)

	newest := since
	for _, p := range response.Users {
		if p.UpdatedAt.After(newest) {
			newest = p.UpdatedAt
		}
	}
	if newest.After(since) {
		if err := w.saveCursor(ctx, newest); err != nil {
			return upserted, fmt.Errorf("save sync cursor: %w", err)
		}
	}
	return upserted, nil
}
