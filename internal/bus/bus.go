package bus

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/cskr/pubsub"
)

const defaultCapacity = 64

type Subscription chan any

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(topic string, msg any)
}

type MessageBus interface {
	Publisher
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger

	// closeMu keeps Unsubscribe from racing Shutdown, after which the
	// dispatcher no longer reads commands.
	closeMu sync.RWMutex
	closed  bool
}

func New(logger *slog.Logger) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}

	return &PubSubBus{
		ps:     pubsub.New(defaultCapacity),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.logger.Debug("publish", "topic", topic, "payload_type", payloadType(msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	ch := b.ps.Sub(topics...)
	b.logger.Debug("subscribe", "topics", topics)

	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}

	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

// Close shuts the dispatcher down and closes every subscription. It is safe
// to call more than once.
func (b *PubSubBus) Close() {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}

// Listen calls fn for every payload of type T published on topic, in order,
// from one goroutine. Other payload types are dropped. The returned stop func
// unsubscribes and returns once every payload published before the call has
// been handled. It is safe to call more than once.
func Listen[T any](b MessageBus, topic string, fn func(T)) (stop func()) {
	if b == nil || fn == nil {
		return func() {}
	}

	sub := b.Subscribe(topic)
	exited := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(exited)
		// The dispatcher closes sub once the unsubscribe is processed, which
		// happens after every earlier publish reached the buffer.
		for raw := range sub {
			msg, ok := raw.(T)
			if !ok {
				slog.Debug("dropping unexpected bus payload", "component", "bus", "topic", topic, "payload_type", payloadType(raw))
				continue
			}
			fn(msg)
		}
	}()

	return func() {
		once.Do(func() {
			b.Unsubscribe(sub, topic)
			<-exited
		})
	}
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
