package pairing

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/recognizer/go/internal/endpoint"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
)

// DefaultConnectDelay is how long a controller waits before announcing itself
const DefaultConnectDelay = 4 * time.Millisecond

// Host subscribes a display to the channel for code. The code must not be
// shown to anyone before Host returns, otherwise a fast controller's connect
// can be published to a channel nobody listens on yet.
func Host(ctx context.Context, t transport.Transport, namespace string, code SessionCode, handler endpoint.Handler, logger *zerolog.Logger) (*endpoint.Display, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}

	channel := transport.ChannelName(namespace, code.String())
	display := endpoint.NewDisplay(handler, logger)
	if err := display.Listen(ctx, t, channel); err != nil {
		return nil, fmt.Errorf("host session: %w", err)
	}
	return display, nil
}

// Join builds the controller for code, waits delay and then publishes connect.
// Nothing confirms the display heard it: pairing is assumed once connect has
// been sent, and a lost connect is only recovered by starting over.
func Join(ctx context.Context, t transport.Transport, namespace string, code SessionCode, clock clockwork.Clock, delay time.Duration, logger *zerolog.Logger) (*endpoint.Controller, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}

	channel := transport.ChannelName(namespace, code.String())
	controller := endpoint.NewController(t, channel, logger)

	select {
	case <-clock.After(delay):
	case <-ctx.Done():
		return nil, fmt.Errorf("join session: %w", ctx.Err())
	}

	// a failed connect is logged by the controller and otherwise ignored
	_ = controller.Connect(ctx)

	logger.Info().
		Str("channel", channel).
		Dur("connect_delay", delay).
		Msg("controller joined session")
	return controller, nil
}
