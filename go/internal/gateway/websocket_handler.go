package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles websocket upgrade requests from screen viewers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshot          func() (*ScreenEvent, error)
}

// NewWebSocketHandler creates a websocket handler. snapshot builds the first
// event every new viewer receives and may be nil.
func NewWebSocketHandler(cm *ConnectionManager, snapshot func() (*ScreenEvent, error)) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshot:          snapshot,
	}
}

// HandleScreenConnection handles GET /ws/screen
func (h *WebSocketHandler) HandleScreenConnection(w http.ResponseWriter, r *http.Request) {
	var initial *ScreenEvent
	if h.snapshot != nil {
		event, err := h.snapshot()
		if err != nil {
			log.Error().Err(err).Msg("failed to build screen snapshot")
		} else {
			initial = event
		}
	}

	// Upgrade writes its own error response
	if err := h.connectionManager.UpgradeConnection(w, r, initial); err != nil {
		log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("screen connection rejected")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/screen", h.HandleScreenConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
