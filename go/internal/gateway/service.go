package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcdev12/recognizer/go/internal/session"
	"github.com/rs/zerolog/log"
)

// RouteRegistrar is implemented by every handler group of the gateway
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// HealthFunc reports whether the relay connection is usable
type HealthFunc func() bool

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// Service is the HTTP surface of one device
type Service struct {
	name              string
	connectionManager *ConnectionManager
	handlers          []RouteRegistrar
	healthy           HealthFunc
}

// NewDisplayService serves a display: screen websocket, frame, pairing, state.
// Display notices are pushed to every connected viewer.
func NewDisplayService(config Config, display *session.Display, pairing PairingInfo, healthy HealthFunc) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	displayHandler := NewDisplayHandler(display, pairing)
	wsHandler := NewWebSocketHandler(connectionManager, displayHandler.Snapshot)

	display.AddListener(func(n session.Notice) {
		if event, ok := EventFromNotice(n); ok {
			connectionManager.Broadcast(event)
		}
	})

	return &Service{
		name:              "recognizer-display",
		connectionManager: connectionManager,
		handlers:          []RouteRegistrar{wsHandler, displayHandler},
		healthy:           healthy,
	}
}

// NewManagerService serves the controller API
func NewManagerService(manager *session.Manager, healthy HealthFunc) *Service {
	return &Service{
		name:     "recognizer-manager",
		handlers: []RouteRegistrar{NewManagerHandler(manager)},
		healthy:  healthy,
	}
}

// Start runs background work until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Str("service", s.name).Msg("starting gateway service")

	if s.connectionManager != nil {
		go s.connectionManager.Start(ctx)
	}

	<-ctx.Done()

	log.Info().Str("service", s.name).Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers every route of the service, /health and /info included
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	for _, h := range s.handlers {
		h.RegisterRoutes(mux)
	}
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/info", s.HandleInfo)
	log.Info().Str("service", s.name).Msg("gateway routes registered")
}

// HandleHealth reports 503 while the relay is disconnected
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthy != nil && !s.healthy() {
		http.Error(w, "relay disconnected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

// ServiceInfo is the body of GET /info
type ServiceInfo struct {
	Service     string           `json:"service"`
	Connected   bool             `json:"connected"`
	Connections *ConnectionStats `json:"connections,omitempty"`
}

func (s *Service) HandleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetStats())
}

func (s *Service) GetStats() ServiceInfo {
	info := ServiceInfo{
		Service:   s.name,
		Connected: s.healthy == nil || s.healthy(),
	}
	if s.connectionManager != nil {
		stats := s.connectionManager.GetConnectionStats()
		info.Connections = &stats
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
