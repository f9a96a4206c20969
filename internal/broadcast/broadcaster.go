package broadcast

import (
	"log/slog"
	"sync"
)

// Listener wraps a delivery callback so subscriptions can be removed by
// identity (funcs are not comparable in Go).
type Listener struct {
	fn func(message []byte)
}

func NewListener(fn func(message []byte)) *Listener {
	return &Listener{fn: fn}
}

// Broadcaster is a topic-keyed publish/subscribe bus. Topics are room
// identifiers; delivery is synchronous and in publish order.
type Broadcaster struct {
	logger *slog.Logger

	mu        sync.RWMutex
	listeners map[string]map[*Listener]struct{}
}

func New(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:    logger.With("component", "broadcaster"),
		listeners: make(map[string]map[*Listener]struct{}),
	}
}

// Broadcast delivers the message to every listener currently subscribed to
// the topic. A panicking listener must not prevent delivery to the rest.
func (that *Broadcaster) Broadcast(topic string, message []byte) {
	that.mu.RLock()
	targets := make([]*Listener, 0, len(that.listeners[topic]))
	for listener := range that.listeners[topic] {
		targets = append(targets, listener)
	}
	that.mu.RUnlock()

	for _, listener := range targets {
		that.deliver(topic, listener, message)
	}
}

func (that *Broadcaster) deliver(topic string, listener *Listener, message []byte) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("listener panicked", "topic", topic, "panic", r)
		}
	}()

	listener.fn(message)
}

func (that *Broadcaster) AddListener(topic string, listener *Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	set, ok := that.listeners[topic]
	if !ok {
		set = make(map[*Listener]struct{})
		that.listeners[topic] = set
	}

	set[listener] = struct{}{}
}

// RemoveListener drops the listener; removing the last one releases the
// topic's storage so room churn does not grow the map without bound.
func (that *Broadcaster) RemoveListener(topic string, listener *Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	set, ok := that.listeners[topic]
	if !ok {
		return
	}

	delete(set, listener)

	if len(set) == 0 {
		delete(that.listeners, topic)
	}
}

func (that *Broadcaster) ListenerCount(topic string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.listeners[topic])
}
