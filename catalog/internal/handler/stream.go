package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/feed"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

// StreamBooks godoc
// @Summary live catalog snapshots as server-sent events
// @Tags books
// @Produce text/event-stream
// @Success 200 {object} feed.Snapshot
// @Router /books/stream [get]
func (h *Handler) StreamBooks(c echo.Context) error {
	return h.stream(c, model.CollectionBooks)
}

// StreamLoans godoc
// @Summary live loan snapshots as server-sent events
// @Tags loans
// @Produce text/event-stream
// @Success 200 {object} feed.Snapshot
// @Router /loans/stream [get]
func (h *Handler) StreamLoans(c echo.Context) error {
	return h.stream(c, model.CollectionLoans)
}

func (h *Handler) stream(c echo.Context, collection model.Collection) error {
	ctx := c.Request().Context()

	// one slot, newest snapshot wins
	updates := make(chan feed.Snapshot, 1)
	unsubscribe, err := h.feed.Subscribe(ctx, collection, func(s feed.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		return httpError(err)
	}
	defer unsubscribe()

	w := c.Response()
	// streams outlive the server write timeout
	_ = http.NewResponseController(w.Writer).SetWriteDeadline(time.Time{})
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case snap := <-updates:
			data, err := json.Marshal(snap)
			if err != nil {
				h.log.Error("marshal snapshot", zap.Error(err))
				continue
			}
			if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", snap.Collection, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
