package endpoint

import (
	"context"
	"testing"

	"github.com/mcdev12/recognizer/go/internal/control"
	"github.com/mcdev12/recognizer/go/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recorder counts every callback it receives
type recorder struct {
	calls map[control.Action]int
	srcs  []string
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[control.Action]int)}
}

func (r *recorder) OnConnect()         { r.calls[control.ActionConnect]++ }
func (r *recorder) OnStart(src string) { r.calls[control.ActionStart]++; r.srcs = append(r.srcs, src) }
func (r *recorder) OnPause()           { r.calls[control.ActionPause]++ }
func (r *recorder) OnResume()          { r.calls[control.ActionResume]++ }
func (r *recorder) OnReset()           { r.calls[control.ActionReset]++ }
func (r *recorder) OnSkip()            { r.calls[control.ActionSkip]++ }

func TestDisplayDispatchesEachActionOnce(t *testing.T) {
	logger := zerolog.Nop()

	for _, action := range control.Actions() {
		t.Run(string(action), func(t *testing.T) {
			rec := newRecorder()
			d := NewDisplay(rec, &logger)

			msg := control.Message{Action: action}
			if action == control.ActionStart {
				msg.Src = "images/star.png"
			}
			data, err := control.Encode(msg)
			require.NoError(t, err)

			d.HandleMessage(data)

			require.Equal(t, map[control.Action]int{action: 1}, rec.calls)
			if action == control.ActionStart {
				require.Equal(t, []string{"images/star.png"}, rec.srcs)
			}
		})
	}
}

func TestDisplayDropsGarbage(t *testing.T) {
	logger := zerolog.Nop()
	rec := newRecorder()
	d := NewDisplay(rec, &logger)

	d.HandleMessage([]byte(`{"action":"explode"}`))
	d.HandleMessage([]byte(`{{{`))
	d.HandleMessage([]byte(`{"action":"start"}`))
	d.HandleMessage(nil)
	d.Dispatch(control.Message{Action: "bogus"})
	d.Dispatch(control.Message{Action: control.ActionStart})

	require.Empty(t, rec.calls)
}

func TestHandlerFuncsUnregisteredSlotsAreSilent(t *testing.T) {
	logger := zerolog.Nop()
	var started []string
	d := NewDisplay(HandlerFuncs{
		Start: func(src string) { started = append(started, src) },
	}, &logger)

	require.NotPanics(t, func() {
		d.Dispatch(control.Connect())
		d.Dispatch(control.Pause())
		d.Dispatch(control.Resume())
		d.Dispatch(control.Reset())
		d.Dispatch(control.Skip())
	})
	d.Dispatch(control.Start("images/dice.png"))

	require.Equal(t, []string{"images/dice.png"}, started)
}

func TestControllerToDisplayOverRelay(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)
	ctx := context.Background()
	channel := transport.ChannelName("geekcoil.recognizer", "abc123")

	rec := newRecorder()
	d := NewDisplay(rec, &logger)
	require.NoError(t, d.Listen(ctx, relay, channel))

	c := NewController(relay, channel, &logger)
	require.Equal(t, channel, c.Channel())
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.StartPattern(ctx, "images/star.png"))
	require.NoError(t, c.Pause(ctx))
	require.NoError(t, c.Resume(ctx))
	require.NoError(t, c.Skip(ctx))
	require.NoError(t, c.Reset(ctx))

	for _, action := range control.Actions() {
		require.Equal(t, 1, rec.calls[action], string(action))
	}
	require.Equal(t, []string{"images/star.png"}, rec.srcs)

	require.NoError(t, d.Close())
	require.NoError(t, c.Pause(ctx))
	require.Equal(t, 1, rec.calls[control.ActionPause])
	require.NoError(t, d.Close())
}

func TestControllerSurfacesPublishFailure(t *testing.T) {
	logger := zerolog.Nop()
	relay := transport.NewMemory(&logger)
	require.NoError(t, relay.Close())

	c := NewController(relay, "geekcoil.recognizer.abc", &logger)
	require.ErrorIs(t, c.Pause(context.Background()), transport.ErrClosed)
	require.ErrorIs(t, c.StartPattern(context.Background(), ""), control.ErrMissingSource)
}
