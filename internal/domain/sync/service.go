// Package sync implements the server side of the bidirectional sync
// protocol: applying client change sets with last-write-wins conflict
// resolution, normalizing duplicates, and computing the reciprocal change
// set for the caller's watermark.
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// Servicer is the sync processor contract consumed by the HTTP layer.
type Servicer interface {
	Sync(ctx context.Context, userID int64, req SyncRequest) (*SyncResponse, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("module", "sync_service"),
		now:  time.Now,
	}
}

// Sync is the single entry point of the server sync processor. Within one
// transaction it applies the client's changes in two ordered phases, runs
// the duplicate normalizer for the owner, and collects every record changed
// after the client's watermark. The returned SyncedAt is the server's own
// clock and becomes the caller's new watermark.
func (s *Service) Sync(ctx context.Context, userID int64, req SyncRequest) (*SyncResponse, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sync transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := NewApplier(tx, s.log, s.now).Apply(ctx, userID, req.Changes); err != nil {
		return nil, fmt.Errorf("apply client changes: %w", err)
	}

	if err := NewNormalizer(tx, s.log).Run(ctx, userID); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	syncedAt := s.now().UTC()

	changes, err := CollectChanges(ctx, tx, userID, req.LastSyncedAt)
	if err != nil {
		return nil, fmt.Errorf("collect server changes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sync transaction: %w", err)
	}

	s.log.Info("sync completed",
		"user_id", userID,
		"received", req.Changes.Total(),
		"returned", changes.Total(),
	)

	return &SyncResponse{SyncedAt: syncedAt, Changes: *changes}, nil
}
