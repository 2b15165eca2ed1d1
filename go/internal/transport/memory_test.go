package transport

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestChannelName(t *testing.T) {
	require.Equal(t, "geekcoil.recognizer.abc", ChannelName("geekcoil.recognizer", "abc"))
	require.Equal(t, "geekcoil.recognizer.abc", ChannelName("geekcoil.recognizer.", "abc"))
	require.Equal(t, "abc", ChannelName("", "abc"))
}

func TestMemoryDeliversToChannelSubscribers(t *testing.T) {
	logger := zerolog.Nop()
	relay := NewMemory(&logger)
	ctx := context.Background()

	var got, other [][]byte
	_, err := relay.Subscribe(ctx, "ns.a", func(data []byte) { got = append(got, data) }, nil)
	require.NoError(t, err)
	_, err = relay.Subscribe(ctx, "ns.b", func(data []byte) { other = append(other, data) }, nil)
	require.NoError(t, err)

	require.NoError(t, relay.Publish(ctx, "ns.a", []byte("one")))
	require.NoError(t, relay.Publish(ctx, "ns.a", []byte("two")))

	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, got)
	require.Empty(t, other)
}

func TestMemoryPublishWithoutSubscribersIsDropped(t *testing.T) {
	logger := zerolog.Nop()
	relay := NewMemory(&logger)
	ctx := context.Background()

	require.NoError(t, relay.Publish(ctx, "ns.nobody", []byte("lost")))

	var got int
	_, err := relay.Subscribe(ctx, "ns.nobody", func([]byte) { got++ }, nil)
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestMemoryUnsubscribe(t *testing.T) {
	logger := zerolog.Nop()
	relay := NewMemory(&logger)
	ctx := context.Background()

	var got int
	sub, err := relay.Subscribe(ctx, "ns.a", func([]byte) { got++ }, nil)
	require.NoError(t, err)
	require.Equal(t, "ns.a", sub.Channel())

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, relay.Publish(ctx, "ns.a", []byte("x")))
	require.Zero(t, got)
}

func TestMemoryClose(t *testing.T) {
	logger := zerolog.Nop()
	relay := NewMemory(&logger)
	ctx := context.Background()

	var errs []error
	_, err := relay.Subscribe(ctx, "ns.a", func([]byte) {}, func(err error) { errs = append(errs, err) })
	require.NoError(t, err)
	require.True(t, relay.Connected())

	require.NoError(t, relay.Close())
	require.False(t, relay.Connected())
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrClosed)

	require.ErrorIs(t, relay.Publish(ctx, "ns.a", nil), ErrClosed)
	_, err = relay.Subscribe(ctx, "ns.a", func([]byte) {}, nil)
	require.ErrorIs(t, err, ErrClosed)

	require.NoError(t, relay.Close())
}

func TestEmptyChannelRejected(t *testing.T) {
	logger := zerolog.Nop()
	relay := NewMemory(&logger)

	_, err := relay.Subscribe(context.Background(), "", func([]byte) {}, nil)
	require.ErrorIs(t, err, ErrEmptyChannel)
	require.ErrorIs(t, relay.Publish(context.Background(), "", nil), ErrEmptyChannel)
}
