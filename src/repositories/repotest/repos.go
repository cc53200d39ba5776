package repotest

import (
	"context"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"eventbooking/src/utils"
	"sort"
	"time"
)

type memEvents struct{ view }

func (r *memEvents) FindByID(_ context.Context, id uint) (*models.Event, error) {
	var out *models.Event
	err := r.do("Events.FindByID", func(s *state) error {
		e, ok := s.events[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *memEvents) FindByIDForUpdate(_ context.Context, id uint) (*models.Event, error) {
	defer r.lockEvent(id)()
	var out *models.Event
	err := r.do("Events.FindByIDForUpdate", func(s *state) error {
		e, ok := s.events[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *memEvents) FindBySlug(_ context.Context, slug string) (*models.Event, error) {
	var out *models.Event
	err := r.do("Events.FindBySlug", func(s *state) error {
		for _, e := range sortedEvents(s) {
			if e.Slug == slug {
				e := e
				out = &e
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memEvents) List(_ context.Context) ([]models.Event, error) {
	var out []models.Event
	err := r.do("Events.List", func(s *state) error {
		out = sortedEvents(s)
		return nil
	})
	return out, err
}

func (r *memEvents) ListFrom(_ context.Context, from time.Time) ([]models.Event, error) {
	var out []models.Event
	err := r.do("Events.ListFrom", func(s *state) error {
		out = []models.Event{}
		for _, e := range sortedEvents(s) {
			if !e.EventDateTime.Before(from) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *memEvents) Create(_ context.Context, event *models.Event) error {
	return r.write("Events.Create", func(s *state) error {
		s.nextEvent++
		event.ID = s.nextEvent
		now := time.Now()
		event.CreatedAt, event.UpdatedAt = now, now
		s.events[event.ID] = *event
		return nil
	})
}

func (r *memEvents) UpdateDetails(_ context.Context, event *models.Event) error {
	defer r.lockEvent(event.ID)()
	return r.write("Events.UpdateDetails", func(s *state) error {
		cur, ok := s.events[event.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		totalSeats, availableSeats, createdAt := cur.TotalSeats, cur.AvailableSeats, cur.CreatedAt
		cur = *event
		cur.TotalSeats, cur.AvailableSeats, cur.CreatedAt = totalSeats, availableSeats, createdAt
		cur.UpdatedAt = time.Now()
		cur.Bookings = nil
		s.events[event.ID] = cur
		return nil
	})
}

func (r *memEvents) Delete(_ context.Context, id uint) error {
	defer r.lockEvent(id)()
	return r.write("Events.Delete", func(s *state) error {
		if _, ok := s.events[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.events, id)
		return nil
	})
}

func (r *memEvents) DecrementSeat(_ context.Context, id uint) (bool, error) {
	defer r.lockEvent(id)()
	var ok bool
	err := r.write("Events.DecrementSeat", func(s *state) error {
		e, found := s.events[id]
		if !found || e.AvailableSeats == 0 {
			return nil
		}
		e.AvailableSeats--
		s.events[id] = e
		ok = true
		return nil
	})
	return ok, err
}

func (r *memEvents) IncrementSeat(_ context.Context, id uint) (bool, error) {
	defer r.lockEvent(id)()
	var ok bool
	err := r.write("Events.IncrementSeat", func(s *state) error {
		e, found := s.events[id]
		if !found || e.AvailableSeats >= e.TotalSeats {
			return nil
		}
		e.AvailableSeats++
		s.events[id] = e
		ok = true
		return nil
	})
	return ok, err
}

func (r *memEvents) SetAvailableSeats(_ context.Context, id uint, seats uint) error {
	defer r.lockEvent(id)()
	return r.write("Events.SetAvailableSeats", func(s *state) error {
		e, found := s.events[id]
		if !found || seats > e.TotalSeats {
			return repositories.ErrNotFound
		}
		e.AvailableSeats = seats
		s.events[id] = e
		return nil
	})
}

func (r *memEvents) SeatDrift(_ context.Context) ([]repositories.SeatDrift, error) {
	var out []repositories.SeatDrift
	err := r.do("Events.SeatDrift", func(s *state) error {
		booked := map[uint]uint{}
		for _, b := range s.bookings {
			booked[b.EventID]++
		}
		for _, e := range sortedByID(s) {
			d := repositories.SeatDrift{
				EventID:        e.ID,
				TotalSeats:     e.TotalSeats,
				AvailableSeats: e.AvailableSeats,
				Booked:         booked[e.ID],
			}
			if d.AvailableSeats != d.Expected() {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, err
}

func sortedEvents(s *state) []models.Event {
	out := sortedByID(s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventDateTime.Before(out[j].EventDateTime)
	})
	return out
}

func sortedByID(s *state) []models.Event {
	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memBookings struct{ view }

func (r *memBookings) Create(_ context.Context, booking *models.Booking) error {
	return r.write("Bookings.Create", func(s *state) error {
		for _, b := range s.bookings {
			if (b.UserID == booking.UserID && b.EventID == booking.EventID) || b.Reference == booking.Reference {
				return repositories.ErrDuplicate
			}
		}
		s.nextBooking++
		booking.ID = s.nextBooking
		booking.UpdatedAt = time.Now()
		stored := *booking
		stored.Event, stored.User = nil, nil
		s.bookings[booking.ID] = stored
		return nil
	})
}

func (r *memBookings) FindByUserAndEvent(_ context.Context, userID, eventID uint) (*models.Booking, error) {
	var out *models.Booking
	err := r.do("Bookings.FindByUserAndEvent", func(s *state) error {
		for _, b := range s.bookings {
			if b.UserID == userID && b.EventID == eventID {
				b := b
				out = &b
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memBookings) Delete(_ context.Context, id uint) error {
	return r.write("Bookings.Delete", func(s *state) error {
		if _, ok := s.bookings[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.bookings, id)
		return nil
	})
}

func (r *memBookings) ListByUser(_ context.Context, userID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.do("Bookings.ListByUser", func(s *state) error {
		out = []models.Booking{}
		for _, b := range s.bookings {
			if b.UserID != userID {
				continue
			}
			if e, ok := s.events[b.EventID]; ok {
				b.Event = &models.Event{ID: e.ID, Name: e.Name, Date: e.Date, Time: e.Time, Price: e.Price}
			}
			out = append(out, b)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].BookingDate.Equal(out[j].BookingDate) {
				return out[i].ID > out[j].ID
			}
			return out[i].BookingDate.After(out[j].BookingDate)
		})
		return nil
	})
	return out, err
}

func (r *memBookings) ListByEvent(_ context.Context, eventID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.do("Bookings.ListByEvent", func(s *state) error {
		out = []models.Booking{}
		for _, b := range s.bookings {
			if b.EventID != eventID {
				continue
			}
			if u, ok := s.users[b.UserID]; ok {
				b.User = &models.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role}
			}
			out = append(out, b)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].BookingDate.Equal(out[j].BookingDate) {
				return out[i].ID < out[j].ID
			}
			return out[i].BookingDate.Before(out[j].BookingDate)
		})
		return nil
	})
	return out, err
}

func (r *memBookings) DeleteByEvent(_ context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	err := r.write("Bookings.DeleteByEvent", func(s *state) error {
		ids = []uint{}
		for id, b := range s.bookings {
			if b.EventID == eventID {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			delete(s.bookings, id)
		}
		return nil
	})
	return ids, err
}

func (r *memBookings) CountByEvent(_ context.Context, eventID uint) (uint, error) {
	var n uint
	err := r.do("Bookings.CountByEvent", func(s *state) error {
		for _, b := range s.bookings {
			if b.EventID == eventID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memBookings) EventIDsByUser(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.do("Bookings.EventIDsByUser", func(s *state) error {
		ids = []uint{}
		for _, b := range s.bookings {
			if b.UserID == userID {
				ids = append(ids, b.EventID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil
	})
	return ids, err
}

type memUsers struct{ view }

func (r *memUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	var out *models.User
	err := r.do("Users.FindByID", func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	email = utils.NormalizeEmail(email)
	err := r.do("Users.FindByEmail", func(s *state) error {
		for _, u := range s.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memUsers) Create(_ context.Context, user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	return r.write("Users.Create", func(s *state) error {
		for _, u := range s.users {
			if u.Email == user.Email {
				return repositories.ErrDuplicate
			}
		}
		s.nextUser++
		user.ID = s.nextUser
		now := time.Now()
		user.CreatedAt, user.UpdatedAt = now, now
		stored := *user
		stored.BookingRefs = nil
		s.users[user.ID] = stored
		return nil
	})
}

func (r *memUsers) UpdateProfile(_ context.Context, user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	return r.write("Users.UpdateProfile", func(s *state) error {
		cur, ok := s.users[user.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		for _, u := range s.users {
			if u.ID != user.ID && u.Email == user.Email {
				return repositories.ErrDuplicate
			}
		}
		cur.FirstName, cur.LastName, cur.Email = user.FirstName, user.LastName, user.Email
		cur.UpdatedAt = time.Now()
		s.users[user.ID] = cur
		return nil
	})
}

func (r *memUsers) BookingRefs(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.do("Users.BookingRefs", func(s *state) error {
		ids = refsOf(s, userID)
		return nil
	})
	return ids, err
}

func (r *memUsers) HasBookingRef(_ context.Context, userID, bookingID uint) (bool, error) {
	var ok bool
	err := r.do("Users.HasBookingRef", func(s *state) error {
		_, ok = s.refs[refKey{userID, bookingID}]
		return nil
	})
	return ok, err
}

func (r *memUsers) AddBookingRef(_ context.Context, userID, bookingID uint) error {
	return r.write("Users.AddBookingRef", func(s *state) error {
		key := refKey{userID, bookingID}
		if _, ok := s.refs[key]; !ok {
			s.refs[key] = time.Now()
		}
		return nil
	})
}

func (r *memUsers) RemoveBookingRef(_ context.Context, userID, bookingID uint) (bool, error) {
	var ok bool
	err := r.write("Users.RemoveBookingRef", func(s *state) error {
		key := refKey{userID, bookingID}
		_, ok = s.refs[key]
		delete(s.refs, key)
		return nil
	})
	return ok, err
}

func (r *memUsers) RemoveBookingRefs(_ context.Context, bookingIDs []uint) (int64, error) {
	var n int64
	err := r.write("Users.RemoveBookingRefs", func(s *state) error {
		drop := make(map[uint]bool, len(bookingIDs))
		for _, id := range bookingIDs {
			drop[id] = true
		}
		for k := range s.refs {
			if drop[k.bookingID] {
				delete(s.refs, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memUsers) PruneDanglingRefs(_ context.Context) (int64, error) {
	var n int64
	err := r.write("Users.PruneDanglingRefs", func(s *state) error {
		for k := range s.refs {
			b, ok := s.bookings[k.bookingID]
			if !ok || b.UserID != k.userID {
				delete(s.refs, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memUsers) RestoreMissingRefs(_ context.Context) (int64, error) {
	var n int64
	err := r.write("Users.RestoreMissingRefs", func(s *state) error {
		for _, b := range s.bookings {
			key := refKey{b.UserID, b.ID}
			if _, ok := s.refs[key]; !ok {
				s.refs[key] = time.Now()
				n++
			}
		}
		return nil
	})
	return n, err
}
