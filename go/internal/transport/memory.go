package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Memory is an in-process relay. Messages are delivered on the publisher's
// goroutine to every subscriber of the channel at publish time; a publish to a
// channel nobody listens on is dropped, just like on a real relay.
type Memory struct {
	logger zerolog.Logger
	mx     *sync.RWMutex
	subs   map[string]map[string]*memorySubscription
	closed bool
}

func NewMemory(logger *zerolog.Logger) *Memory {
	return &Memory{
		logger: logger.With().Str("component", "memory-relay").Logger(),
		mx:     &sync.RWMutex{},
		subs:   make(map[string]map[string]*memorySubscription),
	}
}

func (m *Memory) Subscribe(_ context.Context, channel string, onMessage MessageHandler, onError ErrorHandler) (Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}

	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		id:        uuid.New().String(),
		channel:   channel,
		onMessage: onMessage,
		onError:   onError,
		owner:     m,
	}
	ch, ok := m.subs[channel]
	if !ok {
		ch = make(map[string]*memorySubscription)
		m.subs[channel] = ch
	}
	ch[sub.id] = sub

	m.logger.Debug().
		Str("channel", channel).
		Str("subscription", sub.id).
		Msg("subscribed")
	return sub, nil
}

func (m *Memory) Publish(_ context.Context, channel string, data []byte) error {
	if channel == "" {
		return ErrEmptyChannel
	}

	m.mx.RLock()
	if m.closed {
		m.mx.RUnlock()
		return ErrClosed
	}
	targets := make([]*memorySubscription, 0, len(m.subs[channel]))
	for _, sub := range m.subs[channel] {
		targets = append(targets, sub)
	}
	m.mx.RUnlock()

	if len(targets) == 0 {
		m.logger.Debug().Str("channel", channel).Msg("publish did not reach anyone")
		return nil
	}
	for _, sub := range targets {
		// each subscriber gets its own copy
		payload := make([]byte, len(data))
		copy(payload, data)
		sub.onMessage(payload)
	}
	return nil
}

func (m *Memory) Connected() bool {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return !m.closed
}

// Close drops every subscription and tells each one through its error handler
func (m *Memory) Close() error {
	m.mx.Lock()
	if m.closed {
		m.mx.Unlock()
		return nil
	}
	m.closed = true
	subs := m.subs
	m.subs = make(map[string]map[string]*memorySubscription)
	m.mx.Unlock()

	for _, ch := range subs {
		for _, sub := range ch {
			if sub.onError != nil {
				sub.onError(ErrClosed)
			}
		}
	}
	return nil
}

type memorySubscription struct {
	id        string
	channel   string
	onMessage MessageHandler
	onError   ErrorHandler
	owner     *Memory
}

func (s *memorySubscription) Channel() string {
	return s.channel
}

func (s *memorySubscription) Unsubscribe() error {
	s.owner.mx.Lock()
	defer s.owner.mx.Unlock()

	if ch, ok := s.owner.subs[s.channel]; ok {
		delete(ch, s.id)
		if len(ch) == 0 {
			delete(s.owner.subs, s.channel)
		}
	}
	return nil
}
