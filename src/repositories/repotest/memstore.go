// Package repotest provides an in-memory repositories.Store for tests.
package repotest

import (
	"context"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"reflect"
	"sort"
	"sync"
	"time"
)

type refKey struct {
	userID    uint
	bookingID uint
}

type state struct {
	events   map[uint]models.Event
	bookings map[uint]models.Booking
	users    map[uint]models.User
	refs     map[refKey]time.Time

	nextEvent   uint
	nextBooking uint
	nextUser    uint
}

func (s *state) clone() *state {
	c := &state{
		events:      make(map[uint]models.Event, len(s.events)),
		bookings:    make(map[uint]models.Booking, len(s.bookings)),
		users:       make(map[uint]models.User, len(s.users)),
		refs:        make(map[refKey]time.Time, len(s.refs)),
		nextEvent:   s.nextEvent,
		nextBooking: s.nextBooking,
		nextUser:    s.nextUser,
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.refs {
		c.refs[k] = v
	}
	return c
}

// MemStore runs every repository call as one statement under mu. Atomic
// transactions are not isolated: other callers see their writes at once.
// Event rows carry Postgres-style row locks, taken by FindByIDForUpdate and
// by every write to the row and held until the transaction ends, so unlocked
// read-then-write sequences race here the same way they race against the
// database. A failed transaction replays its undo log.
type MemStore struct {
	mu    sync.Mutex
	data  *state
	fails map[string]error

	rowMu sync.Mutex
	rows  map[uint]chan struct{}
}

func NewMemStore() *MemStore {
	return &MemStore{
		data: &state{
			events:   map[uint]models.Event{},
			bookings: map[uint]models.Booking{},
			users:    map[uint]models.User{},
			refs:     map[refKey]time.Time{},
		},
		fails: map[string]error{},
		rows:  map[uint]chan struct{}{},
	}
}

// FailOn makes the named repository method return err until cleared with a
// nil err. Names are "Events.DecrementSeat", "Users.AddBookingRef" and so on.
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, op)
		return
	}
	m.fails[op] = err
}

func (m *MemStore) Events() repositories.EventRepo {
	return &memEvents{view{m: m}}
}

func (m *MemStore) Bookings() repositories.BookingRepo {
	return &memBookings{view{m: m}}
}

func (m *MemStore) Users() repositories.UserRepo {
	return &memUsers{view{m: m}}
}

func (m *MemStore) Atomic(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txStore{m: m, held: map[uint]bool{}}
	defer tx.release()
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	m.mu.Lock()
	err := m.fails["Atomic.Commit"]
	m.mu.Unlock()
	if err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (m *MemStore) lockRow(id uint) {
	for {
		m.rowMu.Lock()
		busy, ok := m.rows[id]
		if !ok {
			m.rows[id] = make(chan struct{})
			m.rowMu.Unlock()
			return
		}
		m.rowMu.Unlock()
		<-busy
	}
}

func (m *MemStore) unlockRow(id uint) {
	m.rowMu.Lock()
	busy := m.rows[id]
	delete(m.rows, id)
	m.rowMu.Unlock()
	close(busy)
}

// txStore is the Store handed to Atomic callbacks.
type txStore struct {
	m    *MemStore
	held map[uint]bool
	undo []func(s *state)
}

func (t *txStore) Events() repositories.EventRepo {
	return &memEvents{view{m: t.m, tx: t}}
}

func (t *txStore) Bookings() repositories.BookingRepo {
	return &memBookings{view{m: t.m, tx: t}}
}

func (t *txStore) Users() repositories.UserRepo {
	return &memUsers{view{m: t.m, tx: t}}
}

func (t *txStore) Atomic(_ context.Context, fn func(tx repositories.Store) error) error {
	return fn(t)
}

func (t *txStore) rollback() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i](t.m.data)
	}
	t.undo = nil
}

func (t *txStore) release() {
	for id := range t.held {
		t.m.unlockRow(id)
	}
	t.held = nil
}

type view struct {
	m  *MemStore
	tx *txStore
}

// lockEvent takes the event's row lock. A transaction keeps it until it
// ends; a lone statement releases it through the returned func.
func (v view) lockEvent(id uint) (release func()) {
	if v.tx == nil {
		v.m.lockRow(id)
		return func() { v.m.unlockRow(id) }
	}
	if !v.tx.held[id] {
		v.m.lockRow(id)
		v.tx.held[id] = true
	}
	return func() {}
}

// do runs a read as a single statement.
func (v view) do(op string, fn func(s *state) error) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if err := v.m.fails[op]; err != nil {
		return err
	}
	return fn(v.m.data)
}

// write runs fn as a single statement and, inside a transaction, logs how
// to take it back.
func (v view) write(op string, fn func(s *state) error) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if err := v.m.fails[op]; err != nil {
		return err
	}
	if v.tx == nil {
		return fn(v.m.data)
	}
	before := v.m.data.clone()
	err := fn(v.m.data)
	v.tx.undo = append(v.tx.undo, revert(before, v.m.data))
	return err
}

// revert captures the rows changed between before and after. Id sequences
// are not rolled back, as in Postgres.
func revert(before, after *state) func(s *state) {
	events := restore(before.events, after.events)
	bookings := restore(before.bookings, after.bookings)
	users := restore(before.users, after.users)
	refs := restore(before.refs, after.refs)
	return func(s *state) {
		events(s.events)
		bookings(s.bookings)
		users(s.users)
		refs(s.refs)
	}
}

func restore[K comparable, V any](before, after map[K]V) func(map[K]V) {
	type entry struct {
		key     K
		val     V
		present bool
	}
	var changed []entry
	for k, v := range before {
		if cur, ok := after[k]; !ok || !reflect.DeepEqual(cur, v) {
			changed = append(changed, entry{key: k, val: v, present: true})
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			changed = append(changed, entry{key: k})
		}
	}
	return func(m map[K]V) {
		for _, e := range changed {
			if e.present {
				m[e.key] = e.val
			} else {
				delete(m, e.key)
			}
		}
	}
}

// Seed helpers insert fixtures as they are, without validation.

func (m *MemStore) SeedEvent(e models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		m.data.nextEvent++
		e.ID = m.data.nextEvent
	} else if e.ID > m.data.nextEvent {
		m.data.nextEvent = e.ID
	}
	m.data.events[e.ID] = e
	return e
}

func (m *MemStore) SeedUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.data.nextUser++
		u.ID = m.data.nextUser
	} else if u.ID > m.data.nextUser {
		m.data.nextUser = u.ID
	}
	u.BookingRefs = nil
	m.data.users[u.ID] = u
	return u
}

func (m *MemStore) SeedBooking(b models.Booking) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == 0 {
		m.data.nextBooking++
		b.ID = m.data.nextBooking
	} else if b.ID > m.data.nextBooking {
		m.data.nextBooking = b.ID
	}
	b.Event, b.User = nil, nil
	m.data.bookings[b.ID] = b
	return b
}

func (m *MemStore) SeedRef(userID, bookingID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.refs[refKey{userID, bookingID}] = time.Now()
}

// Snapshot accessors for assertions.

func (m *MemStore) Event(id uint) (models.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data.events[id]
	return e, ok
}

func (m *MemStore) AllBookings() []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Booking, 0, len(m.data.bookings))
	for _, b := range m.data.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemStore) Refs(userID uint) []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return refsOf(m.data, userID)
}

func (m *MemStore) RefCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.refs)
}

func refsOf(s *state, userID uint) []uint {
	ids := []uint{}
	for k := range s.refs {
		if k.userID == userID {
			ids = append(ids, k.bookingID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
