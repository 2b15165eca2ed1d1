package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mcdev12/recognizer/go/internal/catalog"
	"github.com/mcdev12/recognizer/go/internal/session"
	"github.com/rs/zerolog/log"
)

// RandomPattern asks /api/play for a random catalog entry unless the catalog
// has a pattern of that name
const RandomPattern = "random"

// PatternInfo is one entry of GET /api/patterns
type PatternInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Src   string `json:"src"`
}

// PlayRequest is the body of POST /api/play
type PlayRequest struct {
	Pattern string `json:"pattern"`
}

// ManagerHandler exposes the controller coordinator over HTTP
type ManagerHandler struct {
	manager *session.Manager
}

func NewManagerHandler(manager *session.Manager) *ManagerHandler {
	return &ManagerHandler{manager: manager}
}

// HandlePatterns handles GET /api/patterns
func (h *ManagerHandler) HandlePatterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cat := h.manager.Catalog()
	patterns := make([]PatternInfo, 0, cat.Len())
	for _, p := range cat.Patterns() {
		src, err := cat.ImagePath(p.Name)
		if err != nil {
			continue
		}
		patterns = append(patterns, PatternInfo{Name: p.Name, Image: p.Image, Src: src})
	}
	writeJSON(w, http.StatusOK, patterns)
}

// HandlePlay handles POST /api/play
func (h *ManagerHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// an empty body means a random pattern
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		state session.ManagerState
		err   error
	)
	name := strings.TrimSpace(req.Pattern)
	if h.wantsRandom(name) {
		state, err = h.manager.StartRandom(r.Context())
	} else {
		state, err = h.manager.SelectPattern(r.Context(), name)
	}
	if errors.Is(err, catalog.ErrUnknownPattern) {
		http.Error(w, "Unknown pattern", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("pattern", name).Msg("failed to start pattern")
		http.Error(w, "Failed to start pattern", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// wantsRandom reports whether name asks for a random pick. A catalog entry
// named like the sentinel is selected by name.
func (h *ManagerHandler) wantsRandom(name string) bool {
	if name == "" {
		return true
	}
	if name != RandomPattern {
		return false
	}
	_, err := h.manager.Catalog().Lookup(name)
	return err != nil
}

// HandleToggle handles POST /api/toggle
func (h *ManagerHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.TogglePause(r.Context()))
}

// HandleReset handles POST /api/reset
func (h *ManagerHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Reset(r.Context()))
}

// HandleSkip handles POST /api/skip
func (h *ManagerHandler) HandleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.FastForward(r.Context()))
}

// HandleState handles GET /api/state
func (h *ManagerHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.State())
}

func (h *ManagerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/patterns", h.HandlePatterns)
	mux.HandleFunc("/api/play", h.HandlePlay)
	mux.HandleFunc("/api/toggle", h.HandleToggle)
	mux.HandleFunc("/api/reset", h.HandleReset)
	mux.HandleFunc("/api/skip", h.HandleSkip)
	mux.HandleFunc("/api/state", h.HandleState)
}
