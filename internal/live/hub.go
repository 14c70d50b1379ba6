// Package live fans contract snapshots out to connected clients.
//
// A Subscription delivers full snapshots of a user's contracts: the first one
// is the current state, and every later one replaces it. Producers never send
// data through the hub; they only call Notify(userID) after a write commits,
// and each subscriber reloads on its own goroutine. A slow reader only ever
// sees the most recent snapshot.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("live: hub closed")

// Loader reads the current contracts of a user.
type Loader func(ctx context.Context, userID string) ([]domain.Contract, error)

// Snapshot is the full contract list of one user at At.
type Snapshot struct {
	UserID    string            `json:"user_id"`
	Contracts []domain.Contract `json:"contracts"`
	At        time.Time         `json:"at"`
}

var subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "live_subscribers",
	Help: "Open contract snapshot subscriptions.",
})

func init() {
	prometheus.MustRegister(subscribers)
}

// Hub tracks subscriptions per user.
type Hub struct {
	load Loader
	now  func() time.Time

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	gens   map[string]uint64 // Notify calls per user
	closed bool
}

// NewHub returns a Hub that reads snapshots with load.
func NewHub(load Loader) *Hub {
	return &Hub{
		load: load,
		now:  func() time.Time { return time.Now().UTC() },
		subs: map[string]map[*Subscription]struct{}{},
		gens: map[string]uint64{},
	}
}

// Subscription is one client's stream of snapshots. C yields snapshots until
// Cancel is called or the subscribing context ends, then it is closed.
type Subscription struct {
	C <-chan Snapshot

	hub    *Hub
	userID string
	out    chan Snapshot
	dirty  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Subscribe loads the current snapshot, queues it as the first event and
// starts watching for changes. A Notify that lands while the first snapshot
// loads marks the new subscription stale, so a reload follows.
func (h *Hub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	h.mu.Lock()
	gen := h.gens[userID]
	h.mu.Unlock()

	snap, err := h.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		hub:    h,
		userID: userID,
		out:    make(chan Snapshot, 1),
		dirty:  make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.C = s.out
	s.out <- snap

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	if h.subs[userID] == nil {
		h.subs[userID] = map[*Subscription]struct{}{}
	}
	h.subs[userID][s] = struct{}{}
	if h.gens[userID] != gen {
		s.dirty <- struct{}{}
	}
	h.mu.Unlock()
	subscribers.Inc()

	go s.run(sctx)
	return s, nil
}

// Cancel stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Notify marks every subscription of userID as stale.
func (h *Hub) Notify(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gens[userID]++
	for s := range h.subs[userID] {
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close cancels every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, m := range h.subs {
		for s := range m {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		s.Cancel()
	}
}

func (h *Hub) snapshot(ctx context.Context, userID string) (Snapshot, error) {
	items, err := h.load(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if items == nil {
		items = []domain.Contract{}
	}
	return Snapshot{UserID: userID, Contracts: items, At: h.now()}, nil
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.subs[s.userID]; m != nil {
		delete(m, s)
		if len(m) == 0 {
			delete(h.subs, s.userID)
		}
	}
	subscribers.Dec()
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)
	defer s.hub.remove(s)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
			snap, err := s.hub.snapshot(ctx, s.userID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Ctx(ctx).Warn().Err(err).Str("user_id", s.userID).Msg("snapshot reload failed")
				continue
			}
			s.deliver(snap)
		}
	}
}

// deliver replaces any unread snapshot with snap. run is the only sender.
func (s *Subscription) deliver(snap Snapshot) {
	select {
	case <-s.out:
	default:
	}
	select {
	case s.out <- snap:
	default:
	}
}
