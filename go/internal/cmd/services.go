package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/recognizer/go/internal/animation"
	"github.com/mcdev12/recognizer/go/internal/catalog"
	"github.com/mcdev12/recognizer/go/internal/config"
	"github.com/mcdev12/recognizer/go/internal/endpoint"
	"github.com/mcdev12/recognizer/go/internal/gateway"
	"github.com/mcdev12/recognizer/go/internal/pairing"
	"github.com/mcdev12/recognizer/go/internal/session"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// managePrefix mounts the controller API next to a display in local mode
const managePrefix = "/manage"

type Services struct {
	Handler  http.Handler
	Gateways []*gateway.Service

	listener *endpoint.Display
}

// Close drops the display's channel subscription, if any
func (s *Services) Close() {
	if s.listener == nil {
		return
	}
	if err := s.listener.Close(); err != nil {
		log.Error().Err(err).Msg("failed to unsubscribe display")
	}
}

func setupTransport(cfg *config.Config, logger *zerolog.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportMemory:
		return transport.NewMemory(logger), nil
	case config.TransportNATS:
		natsCfg := transport.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		return transport.NewNATS(natsCfg)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// setupServices wires the device for role. With the in-process relay nothing
// outside this process can pair, so a display also hosts its own controller
// under /manage.
func setupServices(ctx context.Context, cfg *config.Config, relay transport.Transport, role pairing.Role, params url.Values, logger *zerolog.Logger) (*Services, error) {
	mux := http.NewServeMux()
	services := &Services{Handler: mux}

	if role == pairing.RoleController {
		svc, err := setupManager(ctx, cfg, relay, pairing.SessionCode(pairing.ManageCode(params)), logger)
		if err != nil {
			return nil, err
		}
		svc.RegisterRoutes(mux)
		services.Gateways = append(services.Gateways, svc)
		return services, nil
	}

	svc, listener, code, err := setupDisplay(ctx, cfg, relay, pairing.ForcedCode(params), logger)
	if err != nil {
		return nil, err
	}
	svc.RegisterRoutes(mux)
	services.Gateways = append(services.Gateways, svc)
	services.listener = listener

	if cfg.Transport == config.TransportMemory {
		manager, err := setupManager(ctx, cfg, relay, code, logger)
		if err != nil {
			services.Close()
			return nil, err
		}
		manageMux := http.NewServeMux()
		manager.RegisterRoutes(manageMux)
		mux.Handle(managePrefix+"/", http.StripPrefix(managePrefix, manageMux))
		services.Gateways = append(services.Gateways, manager)
	}
	return services, nil
}

func setupDisplay(ctx context.Context, cfg *config.Config, relay transport.Transport, forced string, logger *zerolog.Logger) (*gateway.Service, *endpoint.Display, pairing.SessionCode, error) {
	code, err := pairing.DeriveSessionCode(forced)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to derive session code: %w", err)
	}

	loader := animation.NewLoader(cfg.AssetRoot, cfg.FetchTimeout)
	display, err := session.NewDisplay(cfg.Animation(), clockwork.NewRealClock(), loader, logger)
	if err != nil {
		return nil, nil, "", err
	}

	manageURL, err := pairing.ManageURL(cfg.PublicURL, code)
	if err != nil {
		return nil, nil, "", err
	}

	// subscribe before the code is shown anywhere. Without a subscription the
	// display still serves its pages, it just never hears a controller.
	listener, err := pairing.Host(ctx, relay, cfg.Namespace, code, display, logger)
	if err != nil {
		log.Error().Err(err).Str("code", code.String()).Msg("failed to subscribe display to its channel")
		listener = nil
	}

	info := gateway.PairingInfo{
		Code:      code.String(),
		ManageURL: manageURL,
		Channel:   transport.ChannelName(cfg.Namespace, code.String()),
	}
	log.Info().
		Str("code", info.Code).
		Str("manage_url", info.ManageURL).
		Msg("waiting for a controller")

	svc := gateway.NewDisplayService(gateway.DefaultConfig(), display, info, relay.Connected)
	return svc, listener, code, nil
}

func setupManager(ctx context.Context, cfg *config.Config, relay transport.Transport, code pairing.SessionCode, logger *zerolog.Logger) (*gateway.Service, error) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	cat, err := catalog.Load(loadCtx, cfg.CatalogSource)
	cancel()
	if err != nil {
		return nil, err
	}
	cat.SetImageDir(cfg.ImageDir)
	log.Info().Int("patterns", cat.Len()).Str("source", cfg.CatalogSource).Msg("pattern catalog loaded")

	controller, err := pairing.Join(ctx, relay, cfg.Namespace, code, clockwork.NewRealClock(), cfg.ConnectDelay, logger)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	manager := session.NewManager(cat, controller, rng, logger)
	return gateway.NewManagerService(manager, relay.Connected), nil
}
