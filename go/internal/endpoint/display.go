package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/recognizer/go/internal/control"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
)

// Handler receives the demultiplexed control messages on the display side
type Handler interface {
	OnConnect()
	OnStart(src string)
	OnPause()
	OnResume()
	OnReset()
	OnSkip()
}

// HandlerFuncs adapts optional functions to a Handler. A nil slot drops the message.
type HandlerFuncs struct {
	Connect func()
	Start   func(src string)
	Pause   func()
	Resume  func()
	Reset   func()
	Skip    func()
}

func (h HandlerFuncs) OnConnect() {
	if h.Connect != nil {
		h.Connect()
	}
}

func (h HandlerFuncs) OnStart(src string) {
	if h.Start != nil {
		h.Start(src)
	}
}

func (h HandlerFuncs) OnPause() {
	if h.Pause != nil {
		h.Pause()
	}
}

func (h HandlerFuncs) OnResume() {
	if h.Resume != nil {
		h.Resume()
	}
}

func (h HandlerFuncs) OnReset() {
	if h.Reset != nil {
		h.Reset()
	}
}

func (h HandlerFuncs) OnSkip() {
	if h.Skip != nil {
		h.Skip()
	}
}

// Display is the receiving side of a paired channel
type Display struct {
	handler Handler
	logger  zerolog.Logger

	mu  sync.Mutex
	sub transport.Subscription
}

func NewDisplay(handler Handler, logger *zerolog.Logger) *Display {
	return &Display{
		handler: handler,
		logger:  logger.With().Str("component", "display-endpoint").Logger(),
	}
}

// Listen subscribes to the channel. Once it returns the display can receive
// messages, so only then should the pairing code be revealed.
func (d *Display) Listen(ctx context.Context, t transport.Transport, channel string) error {
	sub, err := t.Subscribe(ctx, channel, d.HandleMessage, d.handleError)
	if err != nil {
		d.logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		return fmt.Errorf("listen on %s: %w", channel, err)
	}

	d.mu.Lock()
	d.sub = sub
	d.mu.Unlock()

	d.logger.Info().Str("channel", channel).Msg("display listening")
	return nil
}

// HandleMessage decodes a raw payload and dispatches it. Anything that does
// not decode into a valid control message is dropped.
func (d *Display) HandleMessage(data []byte) {
	msg, err := control.Decode(data)
	if err != nil {
		d.logger.Debug().Err(err).Int("size", len(data)).Msg("dropping control message")
		return
	}
	d.Dispatch(msg)
}

// Dispatch routes a message to the handler method for its action
func (d *Display) Dispatch(msg control.Message) {
	d.logger.Debug().
		Str("action", string(msg.Action)).
		Str("src", msg.Src).
		Msg("control message received")

	switch msg.Action {
	case control.ActionConnect:
		d.handler.OnConnect()
	case control.ActionStart:
		if msg.Src == "" {
			d.logger.Debug().Msg("dropping start without src")
			return
		}
		d.handler.OnStart(msg.Src)
	case control.ActionPause:
		d.handler.OnPause()
	case control.ActionResume:
		d.handler.OnResume()
	case control.ActionReset:
		d.handler.OnReset()
	case control.ActionSkip:
		d.handler.OnSkip()
	default:
		d.logger.Debug().Str("action", string(msg.Action)).Msg("dropping unknown action")
	}
}

// Close drops the channel subscription
func (d *Display) Close() error {
	d.mu.Lock()
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

func (d *Display) handleError(err error) {
	d.logger.Error().Err(err).Msg("channel error")
}
