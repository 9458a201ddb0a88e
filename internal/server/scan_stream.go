package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/feanalyst/fe-analyst/internal/events"
)

const streamWriteTimeout = 10 * time.Second

// ScanStreamHandler pushes scan progress events to websocket clients
type ScanStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewScanStreamHandler creates a new scan stream handler
func NewScanStreamHandler(bus *events.Bus, log zerolog.Logger) *ScanStreamHandler {
	return &ScanStreamHandler{
		bus: bus,
		log: log.With().Str("component", "scan_stream").Logger(),
	}
}

// HandleScanStream upgrades the connection and relays bus events until
// the client disconnects
func (h *ScanStreamHandler) HandleScanStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The API already allows any origin via CORS
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	h.log.Debug().Msg("Scan stream client connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.writeEvent(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Scan stream client disconnected")
				return
			}
		}
	}
}

// writeEvent sends one event with a write deadline
func (h *ScanStreamHandler) writeEvent(ctx context.Context, conn *websocket.Conn, event events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, event)
}
