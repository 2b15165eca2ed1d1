package transport

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrClosed       = errors.New("transport closed")
	ErrEmptyChannel = errors.New("channel name is empty")
)

// MessageHandler receives the raw payload of one published message
type MessageHandler func(data []byte)

// ErrorHandler receives asynchronous errors for a subscription
type ErrorHandler func(err error)

// Subscription is a live interest in one channel
type Subscription interface {
	Channel() string
	Unsubscribe() error
}

// Transport is a named publish/subscribe relay. Delivery is best effort: no
// ordering across publishes, no acknowledgement, no redelivery.
type Transport interface {
	Subscribe(ctx context.Context, channel string, onMessage MessageHandler, onError ErrorHandler) (Subscription, error)
	Publish(ctx context.Context, channel string, data []byte) error
	Connected() bool
	Close() error
}

// ChannelName joins the namespace and the session code into a channel name
func ChannelName(namespace, code string) string {
	namespace = strings.TrimSuffix(namespace, ".")
	if namespace == "" {
		return code
	}
	return namespace + "." + code
}
