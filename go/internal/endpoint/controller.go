package endpoint

import (
	"context"

	"github.com/mcdev12/recognizer/go/internal/control"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
)

// Controller is the manager side of a paired channel. Every operation publishes
// exactly one control message and never retries; the returned error is
// informational and has already been logged.
type Controller struct {
	transport transport.Transport
	channel   string
	logger    zerolog.Logger
}

func NewController(t transport.Transport, channel string, logger *zerolog.Logger) *Controller {
	return &Controller{
		transport: t,
		channel:   channel,
		logger: logger.With().
			Str("component", "controller").
			Str("channel", channel).
			Logger(),
	}
}

func (c *Controller) Channel() string {
	return c.channel
}

// Connect tells the display that a manager is listening on the channel
func (c *Controller) Connect(ctx context.Context) error {
	return c.send(ctx, control.Connect())
}

// StartPattern asks the display to animate the image at src
func (c *Controller) StartPattern(ctx context.Context, src string) error {
	return c.send(ctx, control.Start(src))
}

func (c *Controller) Pause(ctx context.Context) error {
	return c.send(ctx, control.Pause())
}

func (c *Controller) Resume(ctx context.Context) error {
	return c.send(ctx, control.Resume())
}

func (c *Controller) Reset(ctx context.Context) error {
	return c.send(ctx, control.Reset())
}

func (c *Controller) Skip(ctx context.Context) error {
	return c.send(ctx, control.Skip())
}

func (c *Controller) send(ctx context.Context, msg control.Message) error {
	data, err := control.Encode(msg)
	if err != nil {
		c.logger.Error().Err(err).Str("action", string(msg.Action)).Msg("failed to encode control message")
		return err
	}

	if err := c.transport.Publish(ctx, c.channel, data); err != nil {
		c.logger.Error().Err(err).Str("action", string(msg.Action)).Msg("failed to publish control message")
		return err
	}

	c.logger.Debug().
		Str("action", string(msg.Action)).
		Str("src", msg.Src).
		Msg("control message published")
	return nil
}
