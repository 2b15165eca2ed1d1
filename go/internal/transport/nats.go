package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS relay connection
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	FlushTimeout  time.Duration
}

// DefaultNATSConfig returns default NATS relay configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "recognizer",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		FlushTimeout:  2 * time.Second,
	}
}

// NATS is a Transport over core NATS subjects. Channel names map 1:1 onto subjects.
type NATS struct {
	nc     *nats.Conn
	config NATSConfig

	mu       sync.RWMutex
	onErrors map[*nats.Subscription]ErrorHandler
}

// NewNATS connects to the relay
func NewNATS(config NATSConfig) (*NATS, error) {
	t := &NATS{
		config:   config,
		onErrors: make(map[*nats.Subscription]ErrorHandler),
	}

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			t.routeError(sub, err)
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	t.nc = nc

	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS relay")
	return t, nil
}

// Subscribe registers interest in a channel and flushes so the relay knows about
// it before the call returns.
func (t *NATS) Subscribe(ctx context.Context, channel string, onMessage MessageHandler, onError ErrorHandler) (Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if t.nc.IsClosed() {
		return nil, ErrClosed
	}

	sub, err := t.nc.Subscribe(channel, func(msg *nats.Msg) {
		onMessage(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	if onError != nil {
		t.mu.Lock()
		t.onErrors[sub] = onError
		t.mu.Unlock()
	}

	if err := t.flush(ctx); err != nil {
		t.forget(sub)
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription %s: %w", channel, err)
	}

	log.Debug().Str("channel", channel).Msg("subscribed to channel")
	return &natsSubscription{sub: sub, owner: t}, nil
}

// Publish sends one message and flushes it to the relay
func (t *NATS) Publish(ctx context.Context, channel string, data []byte) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	if t.nc.IsClosed() {
		return ErrClosed
	}
	if err := t.nc.Publish(channel, data); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	if err := t.flush(ctx); err != nil {
		return fmt.Errorf("flush publish %s: %w", channel, err)
	}
	return nil
}

// Connected reports whether the relay connection is currently up
func (t *NATS) Connected() bool {
	return t.nc != nil && t.nc.IsConnected()
}

// Close drains nothing and drops the connection
func (t *NATS) Close() error {
	if t.nc != nil {
		t.nc.Close()
	}
	return nil
}

// flush waits for the relay to process everything sent so far. FlushWithContext
// needs a deadline, so one is added when the caller did not set one.
func (t *NATS) flush(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.FlushTimeout)
		defer cancel()
	}
	return t.nc.FlushWithContext(ctx)
}

func (t *NATS) routeError(sub *nats.Subscription, err error) {
	if sub == nil {
		log.Error().Err(err).Msg("NATS error")
		return
	}

	t.mu.RLock()
	onError, ok := t.onErrors[sub]
	t.mu.RUnlock()

	if !ok {
		log.Error().Err(err).Str("channel", sub.Subject).Msg("NATS subscription error")
		return
	}
	onError(err)
}

func (t *NATS) forget(sub *nats.Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.onErrors, sub)
}

type natsSubscription struct {
	sub   *nats.Subscription
	owner *NATS
}

func (s *natsSubscription) Channel() string {
	return s.sub.Subject
}

func (s *natsSubscription) Unsubscribe() error {
	s.owner.forget(s.sub)
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.sub.Subject, err)
	}
	return nil
}
