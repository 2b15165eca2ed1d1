package gateway

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/mcdev12/recognizer/go/internal/session"
	"github.com/rs/zerolog/log"
)

// DisplayHandler serves the display device: its canvas, pairing info and state
type DisplayHandler struct {
	display *session.Display
	pairing PairingInfo
}

func NewDisplayHandler(display *session.Display, pairing PairingInfo) *DisplayHandler {
	return &DisplayHandler{
		display: display,
		pairing: pairing,
	}
}

// HandleFrame handles GET /frame.png
func (h *DisplayHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, h.display.Snapshot()); err != nil {
		log.Error().Err(err).Msg("failed to encode frame")
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("failed to write frame")
	}
}

// HandlePairing handles GET /api/pairing
func (h *DisplayHandler) HandlePairing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.pairing)
}

// HandleState handles GET /api/state
func (h *DisplayHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.display.State())
}

// Snapshot builds the event a new screen viewer starts from
func (h *DisplayHandler) Snapshot() (*ScreenEvent, error) {
	return NewScreenEvent(EventTypeSnapshot, SnapshotPayload{
		Pairing: h.pairing,
		State:   h.display.State(),
	})
}

func (h *DisplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/frame.png", h.HandleFrame)
	mux.HandleFunc("/api/pairing", h.HandlePairing)
	mux.HandleFunc("/api/state", h.HandleState)
}
