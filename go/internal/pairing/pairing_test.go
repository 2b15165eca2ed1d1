package pairing

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/recognizer/go/internal/endpoint"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGeneratedCodesAreFortyHexDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := DeriveSessionCode("")
		require.NoError(t, err)
		require.Len(t, code.String(), CodeLength)
		for _, c := range code.String() {
			require.True(t, strings.ContainsRune(hexDigits, c), "unexpected %q in %s", c, code)
		}
		require.NoError(t, code.Validate())
	}
}

func TestGenerateCodeUsesOneNibblePerByte(t *testing.T) {
	src := bytes.Repeat([]byte{0xf3, 0x0a}, CodeLength/2)
	code, err := GenerateCode(bytes.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("3a", CodeLength/2), code.String())
}

func TestGenerateCodeShortRead(t *testing.T) {
	_, err := GenerateCode(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestGeneratedCodesDiffer(t *testing.T) {
	a, err := DeriveSessionCode("")
	require.NoError(t, err)
	b, err := DeriveSessionCode("")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDeriveSessionCodeOverride(t *testing.T) {
	code, err := DeriveSessionCode("living-room")
	require.NoError(t, err)
	require.Equal(t, SessionCode("living-room"), code)

	_, err = DeriveSessionCode("a.b")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestDetectRole(t *testing.T) {
	require.Equal(t, RoleController, DetectRole(url.Values{ParamManage: {"abc"}}))
	require.Equal(t, RoleDisplay, DetectRole(url.Values{}))
	require.Equal(t, RoleDisplay, DetectRole(url.Values{ParamForce: {"abc"}}))
	// an empty manage value counts as absent
	require.Equal(t, RoleDisplay, DetectRole(url.Values{ParamManage: {""}}))

	require.Equal(t, "controller", RoleController.String())
	require.Equal(t, "display", RoleDisplay.String())
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams("https://example.com/recognizer/?manage=abc%20def&manage=second")
	require.NoError(t, err)
	require.Equal(t, "abc def", ManageCode(params))

	params, err = ParseParams("?force=pinned")
	require.NoError(t, err)
	require.Equal(t, "pinned", ForcedCode(params))
	require.Equal(t, RoleDisplay, DetectRole(params))

	params, err = ParseParams("manage=xyz")
	require.NoError(t, err)
	require.Equal(t, RoleController, DetectRole(params))

	params, err = ParseParams("")
	require.NoError(t, err)
	require.Empty(t, params)

	_, err = ParseParams("manage=%zz")
	require.Error(t, err)
}

func TestManageURL(t *testing.T) {
	link, err := ManageURL("https://example.com/recognizer/index.html?force=old#intro", "abc123")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/recognizer/index.html?manage=abc123", link)

	params, err := ParseParams(link)
	require.NoError(t, err)
	require.Equal(t, RoleController, DetectRole(params))
	require.Equal(t, "abc123", ManageCode(params))
}

func TestHandshake(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := DeriveSessionCode("")
	require.NoError(t, err)

	connected := make(chan struct{}, 1)
	display, err := Host(ctx, relay, "geekcoil.recognizer", code, endpoint.HandlerFuncs{
		Connect: func() { connected <- struct{}{} },
	}, &logger)
	require.NoError(t, err)
	defer display.Close()

	type result struct {
		controller *endpoint.Controller
		err        error
	}
	done := make(chan result, 1)
	go func() {
		c, err := Join(ctx, relay, "geekcoil.recognizer", code, clock, DefaultConnectDelay, &logger)
		done <- result{c, err}
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	select {
	case <-connected:
		t.Fatal("connect sent before the delay elapsed")
	default:
	}

	clock.Advance(DefaultConnectDelay)

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, "geekcoil.recognizer."+code.String(), res.controller.Channel())
	select {
	case <-connected:
	case <-ctx.Done():
		t.Fatal("display never saw connect")
	}
}

func TestJoinBeforeHostLosesConnect(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)
	ctx := context.Background()

	// zero delay on a real clock: connect goes out before anyone listens
	_, err := Join(ctx, relay, "ns", "abc", clockwork.NewRealClock(), 0, &logger)
	require.NoError(t, err)

	var connects int
	_, err = Host(ctx, relay, "ns", "abc", endpoint.HandlerFuncs{Connect: func() { connects++ }}, &logger)
	require.NoError(t, err)
	require.Zero(t, connects)
}

func TestJoinCancelled(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Join(ctx, relay, "ns", "abc", clockwork.NewFakeClock(), time.Second, &logger)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHostRejectsInvalidCode(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)

	_, err := Host(context.Background(), relay, "ns", "", endpoint.HandlerFuncs{}, &logger)
	require.ErrorIs(t, err, ErrInvalidCode)
}
