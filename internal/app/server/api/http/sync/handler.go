package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/app/server/api/http/middleware/auth"
	"coinkeeper/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncOp(), h.sync)
}

func (h *Handler) sync(ctx context.Context, input *syncInput) (*syncOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return &syncOutput{
			Body: SyncResponse{Status: "Error", Error: sync.ErrNotAuthenticated.Error()},
		}, nil
	}

	response, err := h.service.Sync(ctx, userID, input.Body)
	if err != nil {
		h.log.Error("sync failed", "user_id", userID, "error", err)
		return &syncOutput{
			Body: SyncResponse{Status: "Error", Error: err.Error()},
		}, nil
	}

	h.log.Debug("sync completed",
		"user_id", userID,
		"received", input.Body.Changes.Total(),
		"returned", response.Changes.Total(),
	)

	return &syncOutput{
		Body: SyncResponse{Status: "Ok", SyncResponse: *response},
	}, nil
}
