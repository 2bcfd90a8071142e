package sync

import "coinkeeper/internal/domain/sync"

type syncInput struct {
	Body sync.SyncRequest
}

type syncOutput struct {
	Body SyncResponse
}

// SyncResponse wraps the domain response with the status envelope the other
// endpoints use, so devices can distinguish transport success from a
// processor error without parsing HTTP details.
type SyncResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	sync.SyncResponse
}
