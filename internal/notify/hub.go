// Package notify fans newly created transaction records out to live
// subscribers.
//
// Delivery is best-effort and at most once: each subscriber owns a bounded
// buffer and an event that does not fit is dropped for that subscriber only.
// There is no replay; a reconnecting client lists records to resynchronise.
package notify

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/baharkarakas/qrpay-backend/internal/metrics"
	"github.com/baharkarakas/qrpay-backend/internal/models"
)

var ErrClosed = errors.New("notify: hub closed")

// Key identifies who a subscription listens for.
type Key struct {
	WalletAddress string
	Role          models.Role
}

// matches reports whether tx concerns the subscriber: a consumer hears about
// payments it sent, a store about payments it received.
func (k Key) matches(tx models.Transaction) bool {
	switch k.Role {
	case models.RoleConsumer:
		return tx.SenderAddress == k.WalletAddress
	case models.RoleStore:
		return tx.ReceiverAddress == k.WalletAddress
	}
	return false
}

type Event struct {
	Type        string             `json:"type"`
	Transaction models.Transaction `json:"transaction"`
}

const EventTransactionCreated = "transaction.created"

type Subscription struct {
	key    Key
	events chan Event
	once   sync.Once
}

func (s *Subscription) Key() Key { return s.key }

// Events is closed when the subscription is deregistered or the hub closes.
func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) close() { s.once.Do(func() { close(s.events) }) }

// Hub is the process-wide subscriber registry. It is created at start-up and
// closed on shutdown; entries are removed when their connection ends.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	log    *slog.Logger
}

func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Register(key Key) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	sub := &Subscription{key: key, events: make(chan Event, h.buffer)}
	h.subs[sub] = struct{}{}
	metrics.StreamSubscribers.Inc()
	return sub, nil
}

// Deregister removes sub and closes its channel. Calling it twice is safe.
func (h *Hub) Deregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	sub.close()
	metrics.StreamSubscribers.Dec()
}

// Broadcast hands ev to every matching subscriber registered at the time of
// the call. Sends never block; a full buffer drops ev for that subscriber.
// Holding mu keeps events in the order they were broadcast.
func (h *Hub) Broadcast(ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for sub := range h.subs {
		if !sub.key.matches(ev.Transaction) {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			metrics.StreamDropped.Inc()
			h.log.Warn("stream subscriber buffer full, event dropped",
				"wallet", sub.key.WalletAddress, "role", sub.key.Role, "tx_id", ev.Transaction.ID)
		}
	}
	return nil
}

// Close closes every subscription. Later calls to Register and Broadcast
// return ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
		metrics.StreamSubscribers.Dec()
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
