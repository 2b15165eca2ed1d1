package transport

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestDefaultNATSConfig(t *testing.T) {
	cfg := DefaultNATSConfig()
	require.Equal(t, nats.DefaultURL, cfg.URL)
	require.Equal(t, -1, cfg.MaxReconnects)
	require.Positive(t, cfg.FlushTimeout)
}

func TestNATSRoutesSubscriptionErrors(t *testing.T) {
	tr := &NATS{onErrors: make(map[*nats.Subscription]ErrorHandler)}
	require.False(t, tr.Connected())

	sub := &nats.Subscription{Subject: "geekcoil.recognizer.abc"}
	var got error
	tr.onErrors[sub] = func(err error) { got = err }

	tr.routeError(sub, nats.ErrSlowConsumer)
	require.ErrorIs(t, got, nats.ErrSlowConsumer)

	got = nil
	tr.forget(sub)
	tr.routeError(sub, nats.ErrSlowConsumer)
	require.NoError(t, got)

	// connection level errors have no subscription and are only logged
	tr.routeError(nil, nats.ErrConnectionClosed)
}
