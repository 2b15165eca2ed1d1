package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/recognizer/go/internal/config"
	"github.com/mcdev12/recognizer/go/internal/gateway"
	"github.com/mcdev12/recognizer/go/internal/pairing"
	"github.com/mcdev12/recognizer/go/internal/session"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPairingParams(t *testing.T) {
	cfg := config.Default()
	params, err := pairingParams(&cfg)
	require.NoError(t, err)
	require.Equal(t, pairing.RoleDisplay, pairing.DetectRole(params))

	cfg.Link = "https://recognizer.example/?manage=abc&force=zzz"
	params, err = pairingParams(&cfg)
	require.NoError(t, err)
	require.Equal(t, pairing.RoleController, pairing.DetectRole(params))
	require.Equal(t, "abc", pairing.ManageCode(params))

	cfg.Manage = "def"
	params, err = pairingParams(&cfg)
	require.NoError(t, err)
	require.Equal(t, "def", pairing.ManageCode(params))
	require.Equal(t, "zzz", pairing.ForcedCode(params))

	cfg = config.Default()
	cfg.Force = "pinned"
	params, err = pairingParams(&cfg)
	require.NoError(t, err)
	require.Equal(t, pairing.RoleDisplay, pairing.DetectRole(params))
	require.Equal(t, "pinned", pairing.ForcedCode(params))
}

func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "star.png"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patterns.json"), []byte(`{"star": "star"}`), 0o644))
	return dir
}

// With the in-process relay a display hosts its own controller under /manage
func TestLocalModeWiresDisplayAndManager(t *testing.T) {
	dir := writeAssets(t)
	cfg := config.Default()
	cfg.Transport = config.TransportMemory
	cfg.AssetRoot = dir
	cfg.CatalogSource = filepath.Join(dir, "patterns.json")
	cfg.Force = "localsession"
	cfg.Edge = 40

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := zerolog.Nop()
	relay, err := setupTransport(&cfg, &logger)
	require.NoError(t, err)
	defer relay.Close()

	params, err := pairingParams(&cfg)
	require.NoError(t, err)
	services, err := setupServices(ctx, &cfg, relay, pairing.DetectRole(params), params, &logger)
	require.NoError(t, err)
	defer services.Close()
	require.Len(t, services.Gateways, 2)

	server := httptest.NewServer(services.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/pairing")
	require.NoError(t, err)
	var info gateway.PairingInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	require.Equal(t, "localsession", info.Code)
	require.Equal(t, "geekcoil.recognizer.localsession", info.Channel)
	require.Equal(t, "http://localhost:8080/?manage=localsession", info.ManageURL)

	resp, err = http.Post(server.URL+"/manage/api/play", "application/json", strings.NewReader(`{"pattern": "star"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the display loads the image in the background
	var state session.DisplayState
	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/api/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		state = session.DisplayState{}
		return json.NewDecoder(resp.Body).Decode(&state) == nil && state.Mode == session.ModeAnimating
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "images/star.png", state.Src)
	require.Equal(t, 40, state.Animation.Edge)
}

type refusingTransport struct {
	*transport.Memory
}

func (refusingTransport) Subscribe(context.Context, string, transport.MessageHandler, transport.ErrorHandler) (transport.Subscription, error) {
	return nil, errors.New("relay refused subscription")
}

func TestDisplayServesWithoutSubscription(t *testing.T) {
	dir := writeAssets(t)
	cfg := config.Default()
	cfg.Transport = config.TransportMemory
	cfg.AssetRoot = dir
	cfg.CatalogSource = filepath.Join(dir, "patterns.json")

	logger := zerolog.Nop()
	relay := refusingTransport{Memory: transport.NewMemory(&logger)}
	defer relay.Close()

	params, err := pairingParams(&cfg)
	require.NoError(t, err)
	services, err := setupServices(context.Background(), &cfg, relay, pairing.RoleDisplay, params, &logger)
	require.NoError(t, err)
	require.NotNil(t, services)
	defer services.Close()
	require.Nil(t, services.listener)

	server := httptest.NewServer(services.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/pairing")
	require.NoError(t, err)
	var info gateway.PairingInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	require.Len(t, info.Code, pairing.CodeLength)

	resp, err = http.Get(server.URL + "/api/state")
	require.NoError(t, err)
	var state session.DisplayState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()
	require.Equal(t, session.ModeIdle, state.Mode)
}

func TestControllerNeedsCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = config.TransportMemory
	cfg.CatalogSource = filepath.Join(t.TempDir(), "missing.json")
	cfg.Manage = "abc"

	logger := zerolog.Nop()
	relay, err := setupTransport(&cfg, &logger)
	require.NoError(t, err)
	defer relay.Close()

	params, err := pairingParams(&cfg)
	require.NoError(t, err)
	_, err = setupServices(context.Background(), &cfg, relay, pairing.DetectRole(params), params, &logger)
	require.Error(t, err)
}

func TestSetupServer(t *testing.T) {
	server := setupServer(":0", http.NotFoundHandler())
	require.Equal(t, ":0", server.Addr)
	require.NotNil(t, server.Handler)
}
