package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) syncOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync",
		Method:      http.MethodPost,
		Path:        "/api/sync",
		Summary:     "Run one sync round trip",
		Description: "Applies the device's change set, normalizes duplicates and returns every record changed after the supplied watermark together with a new server-issued watermark",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
