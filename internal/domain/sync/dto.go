package sync

import (
	"time"

	"coinkeeper/internal/domain/entity"
)

// SyncRequest is one side of the sync round trip: everything the device has
// changed since its last successful sync, plus the watermark that bounded
// that collection.
type SyncRequest struct {
	LastSyncedAt time.Time        `json:"last_synced_at" format:"date-time" doc:"Watermark of the caller's last successful sync, zero on first sync"`
	Changes      entity.ChangeSet `json:"changes"`
}

// SyncResponse is the reciprocal change set: every record of the owner that
// changed after the supplied watermark, plus a server-issued watermark the
// caller persists. SyncedAt comes from the server clock, never the client's.
type SyncResponse struct {
	SyncedAt time.Time        `json:"synced_at" format:"date-time"`
	Changes  entity.ChangeSet `json:"changes"`
}
