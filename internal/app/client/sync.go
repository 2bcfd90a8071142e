package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	dsync "coinkeeper/internal/domain/sync"
)

// syncTransport is what the agent needs from the server connection. The
// tests substitute an httptest-backed or failing implementation.
type syncTransport interface {
	SetToken(token string)
	Sync(ctx context.Context, req dsync.SyncRequest) (*dsync.SyncResponse, error)
}

// credentialSource yields the stored bearer token, if any.
type credentialSource interface {
	Token() (string, bool)
}

// Result describes one sync attempt.
type Result struct {
	// Skipped is set when the attempt did nothing: another sync was already
	// running, or no credential is stored. Skipping is not an error.
	Skipped    bool
	Uploaded   int
	Downloaded int
	SyncedAt   time.Time
}

// Agent drives the device side of the protocol. All sync work funnels
// through SyncNow behind a try-lock: overlapping triggers (timer, manual
// command) collapse into one round trip instead of queueing.
type Agent struct {
	store  *SQLiteStorage
	api    syncTransport
	creds  credentialSource
	log    *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewAgent(store *SQLiteStorage, api syncTransport, creds credentialSource, log *slog.Logger) *Agent {
	return &Agent{
		store: store,
		api:   api,
		creds: creds,
		log:   log.With("module", "sync_agent"),
		now:   time.Now,
	}
}

// SyncNow runs one full round trip: normalize the local store, collect
// everything past the watermark, exchange change sets with the server, apply
// the reciprocal set, then persist the server-issued watermark. The
// watermark moves only after every prior step succeeded; any failure leaves
// it put so the next attempt re-covers the same window.
func (a *Agent) SyncNow(ctx context.Context) (*Result, error) {
	if !a.mu.TryLock() {
		a.log.Debug("sync already in progress, skipping")
		return &Result{Skipped: true}, nil
	}
	defer a.mu.Unlock()

	token, ok := a.creds.Token()
	if !ok {
		a.log.Debug("no stored credential, skipping sync")
		return &Result{Skipped: true}, nil
	}
	a.api.SetToken(token)

	if err := dsync.NewNormalizer(a.store, a.log).Run(ctx, 0); err != nil {
		return nil, err
	}

	since, err := a.store.LastSyncedAt(ctx)
	if err != nil {
		return nil, err
	}

	changes, err := dsync.CollectChanges(ctx, a.store, 0, since)
	if err != nil {
		return nil, err
	}

	resp, err := a.api.Sync(ctx, dsync.SyncRequest{LastSyncedAt: since, Changes: *changes})
	if err != nil {
		return nil, err
	}

	if err := dsync.NewApplier(a.store, a.log, a.now).Apply(ctx, 0, resp.Changes); err != nil {
		return nil, err
	}

	if err := a.store.SetLastSyncedAt(ctx, resp.SyncedAt); err != nil {
		return nil, err
	}

	a.log.Info("sync completed",
		"uploaded", changes.Total(),
		"downloaded", resp.Changes.Total(),
		"synced_at", resp.SyncedAt,
	)

	return &Result{
		Uploaded:   changes.Total(),
		Downloaded: resp.Changes.Total(),
		SyncedAt:   resp.SyncedAt,
	}, nil
}

// StartAutoSync fires SyncNow on a fixed interval. There is no initial tick:
// the first automatic sync happens one interval after start. Calling it
// while already running is a no-op.
func (a *Agent) StartAutoSync(interval time.Duration) {
	if a.stopCh != nil {
		return
	}
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := a.SyncNow(context.Background()); err != nil {
					a.log.Warn("auto sync failed", "error", err)
				}
			case <-stop:
				return
			}
		}
	}(a.stopCh, a.doneCh)

	a.log.Debug("auto sync started", "interval", interval)
}

// StopAutoSync halts the timer loop and waits for it to exit. Safe to call
// multiple times and before StartAutoSync.
func (a *Agent) StopAutoSync() {
	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	<-a.doneCh
	a.stopCh = nil
	a.doneCh = nil
	a.log.Debug("auto sync stopped")
}

// Status reports the persisted watermark and how many local records the next
// sync would upload.
func (a *Agent) Status(ctx context.Context) (lastSyncedAt time.Time, pending int, err error) {
	lastSyncedAt, err = a.store.LastSyncedAt(ctx)
	if err != nil {
		return time.Time{}, 0, err
	}
	pending, err = a.store.CountChangedSince(ctx, lastSyncedAt)
	if err != nil {
		return time.Time{}, 0, err
	}
	return lastSyncedAt, pending, nil
}
