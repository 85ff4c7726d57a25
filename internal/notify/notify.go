// Package notify delivers document notifications to connected users.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"docvault/internal/logging"
	"docvault/internal/model"
)

// publishTimeout bounds how long Deliver waits on a slow subscriber.
const publishTimeout = 100 * time.Millisecond

// Dispatcher delivers a persisted notification to a user, at most once.
type Dispatcher interface {
	Deliver(ctx context.Context, userID int64, n model.Notification) error
}

// Metrics counts delivery outcomes.
type Metrics struct {
	dispatched *prometheus.CounterVec
}

// NewMetrics registers the dispatcher counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dispatched_total",
				Help: "Total number of notification deliveries by result.",
			},
			[]string{"result"},
		),
	}
	if err := reg.Register(m.dispatched); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dispatched.WithLabelValues(result).Add(float64(n))
}

// Subscription receives the notifications of one user.
type Subscription struct {
	id     string
	userID int64
	mu     sync.Mutex
	closed bool
	events chan model.Notification
}

func newSubscription(userID int64, bufSize int) *Subscription {
	return &Subscription{
		id:     xid.New().String(),
		userID: userID,
		events: make(chan model.Notification, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// UserID returns the subscribed user.
func (s *Subscription) UserID() int64 {
	return s.userID
}

// Events returns the event channel of this subscription. It is closed by Unsubscribe.
func (s *Subscription) Events() <-chan model.Notification {
	return s.events
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

func (s *Subscription) publish(n model.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- n:
		return true
	case <-time.After(publishTimeout):
		return false
	}
}

// Hub fans notifications out to the live subscriptions of each user.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int64]map[string]*Subscription
	bufSize int
	metrics *Metrics
}

var _ Dispatcher = (*Hub)(nil)

// NewHub creates a Hub whose subscriptions buffer bufSize events. metrics may be nil.
func NewHub(bufSize int, metrics *Metrics) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		subs:    make(map[int64]map[string]*Subscription),
		bufSize: bufSize,
		metrics: metrics,
	}
}

// Subscribe registers a new subscription for userID.
func (h *Hub) Subscribe(userID int64) *Subscription {
	sub := newSubscription(userID, h.bufSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[string]*Subscription)
	}
	h.subs[userID][sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.subs[sub.userID]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.subs, sub.userID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Subscribers returns the number of live subscriptions of userID.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Deliver publishes n to every subscription of userID. Users without a
// live subscription only keep the persisted row; that is not an error.
func (h *Hub) Deliver(ctx context.Context, userID int64, n model.Notification) error {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs[userID]))
	for _, sub := range h.subs[userID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.metrics.observe("offline", 1)
		return nil
	}

	var delivered, dropped int
	for _, sub := range targets {
		if sub.publish(n) {
			delivered++
		} else {
			dropped++
		}
	}
	h.metrics.observe("delivered", delivered)
	h.metrics.observe("dropped", dropped)

	if dropped > 0 {
		logging.From(ctx).Warn("notification_dropped",
			zap.String("component", "notify"),
			zap.Int64("user_id", userID),
			zap.String("notification_id", n.ID),
			zap.Int("dropped", dropped),
		)
	}
	return nil
}

// Close unsubscribes every live subscription. Streams waiting on Events end.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscription
	for _, subs := range h.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.subs = make(map[int64]map[string]*Subscription)
	h.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
}
