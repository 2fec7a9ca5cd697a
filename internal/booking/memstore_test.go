package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/movieticket/ticket-booking/internal/model"
)

// memStore is an in-memory Store used by the service tests.  A single
// mutex held for the whole callback gives WithSession/WithOrder the
// same exclusivity the MySQL row locks provide, and a snapshot taken
// at transaction start gives rollback-on-error semantics.
type memStore struct {
	mu       sync.Mutex
	users    map[uint64]*model.User
	halls    map[uint64]*model.Hall
	sessions map[uint64]*model.Session
	orders   map[uint64]*model.Order
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint64]*model.User),
		halls:    make(map[uint64]*model.Hall),
		sessions: make(map[uint64]*model.Session),
		orders:   make(map[uint64]*model.Order),
	}
}

func (s *memStore) addUser(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	}
	s.users[u.ID] = &u
	return &u
}

func (s *memStore) addHall(h model.Hall) *model.Hall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		s.nextID++
		h.ID = s.nextID
	}
	s.halls[h.ID] = &h
	return &h
}

func (s *memStore) addSession(sess model.Session) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == 0 {
		s.nextID++
		sess.ID = s.nextID
	}
	s.sessions[sess.ID] = &sess
	return &sess
}

func (s *memStore) getOrder(id uint64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *memStore) getSession(id uint64) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sessions[id]
}

func copyOrder(o *model.Order) *model.Order {
	c := *o
	c.Seats = append([]string(nil), o.Seats...)
	return &c
}

type memSnapshot struct {
	sessions map[uint64]*model.Session
	orders   map[uint64]*model.Order
	nextID   uint64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		sessions: make(map[uint64]*model.Session, len(s.sessions)),
		orders:   make(map[uint64]*model.Order, len(s.orders)),
		nextID:   s.nextID,
	}
	for id, sess := range s.sessions {
		c := *sess
		snap.sessions[id] = &c
	}
	for id, o := range s.orders {
		snap.orders[id] = copyOrder(o)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.sessions = snap.sessions
	s.orders = snap.orders
	s.nextID = snap.nextID
}

func (s *memStore) Session(ctx context.Context, id uint64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

func (s *memStore) Hall(ctx context.Context, id uint64) (*model.Hall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halls[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *h
	return &c, nil
}

func (s *memStore) User(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *memStore) Order(ctx context.Context, id uint64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *memStore) HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heldSeatsLocked(sessionID, pendingSince), nil
}

func (s *memStore) heldSeatsLocked(sessionID uint64, pendingSince time.Time) map[string]uint64 {
	held := make(map[string]uint64)
	for _, o := range s.orders {
		if o.SessionID != sessionID {
			continue
		}
		active := o.Status == model.OrderPaid ||
			(o.Status == model.OrderPending && o.CreatedAt.After(pendingSince))
		if !active {
			continue
		}
		for _, seat := range o.Seats {
			held[seat] = o.ID
		}
	}
	return held
}

func (s *memStore) WithSession(ctx context.Context, sessionID uint64, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	return s.runTxLocked(fn)
}

func (s *memStore) WithOrder(ctx context.Context, orderID uint64, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return ErrOrderNotFound
	}
	return s.runTxLocked(fn)
}

func (s *memStore) runTxLocked(fn func(tx Tx) error) error {
	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) ExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, o := range s.orders {
		if o.Status == model.OrderPending && !o.CreatedAt.After(cutoff) {
			ids = append(ids, o.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.orders[ids[i]].CreatedAt.Before(s.orders[ids[j]].CreatedAt)
	})
	return ids, nil
}

// memTx mutates the store directly; the owning memStore call already
// holds the mutex and rolls back via snapshot on error.
type memTx struct{ store *memStore }

func (t *memTx) Session(ctx context.Context, id uint64) (*model.Session, error) {
	sess, ok := t.store.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

func (t *memTx) Order(ctx context.Context, id uint64) (*model.Order, error) {
	o, ok := t.store.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (t *memTx) HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error) {
	return t.store.heldSeatsLocked(sessionID, pendingSince), nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *model.Order) error {
	t.store.nextID++
	o.ID = t.store.nextID
	t.store.orders[o.ID] = copyOrder(o)
	return nil
}

func (t *memTx) MarkOrder(ctx context.Context, orderID uint64, from, to model.OrderStatus, at time.Time) error {
	o, ok := t.store.orders[orderID]
	if !ok || o.Status != from {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case model.OrderPaid:
		tm := at
		o.PayTime = &tm
	case model.OrderCancelled, model.OrderRefunded:
		tm := at
		o.CancelTime = &tm
	}
	return nil
}

func (t *memTx) AddBookedSeats(ctx context.Context, sessionID uint64, n uint32) error {
	sess, ok := t.store.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.BookedSeats+n > sess.Capacity {
		return ErrInventoryExhausted
	}
	sess.BookedSeats += n
	return nil
}

func (t *memTx) RemoveBookedSeats(ctx context.Context, sessionID uint64, n uint32) error {
	sess, ok := t.store.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if n > sess.BookedSeats {
		n = sess.BookedSeats
	}
	sess.BookedSeats -= n
	return nil
}
