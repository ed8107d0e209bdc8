package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/validation"
)

// EventProcessor applies a single event.
type EventProcessor interface {
	Process(ctx context.Context, evt events.Event) (bool, error)
}

// RegisterEventRoutes registers POST /_simulate/event, which runs an event
// through the processor synchronously without a broker.
func RegisterEventRoutes(r gin.IRouter, proc EventProcessor) {
	v := validation.New()

	r.POST("/_simulate/event", func(c *gin.Context) {
		var req validation.SimulateEventRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		applied, err := proc.Process(c.Request.Context(), req.Event())
		if err != nil {
			code := "processing_failed"
			if errors.Is(err, events.ErrMalformedPayload) {
				code = "malformed_payload"
			}
			internalError(c, code, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"applied": applied})
	})
}
