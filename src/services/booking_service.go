package services

import (
	"context"
	"errors"
	"eventbooking/src/lib"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"eventbooking/src/types"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// BookingService is the only writer of seat counters, bookings and users'
// booking references.
type BookingService struct {
	store     repositories.Store
	publisher lib.Publisher
	locker    lib.Locker
	now       func() time.Time
}

func NewBookingService(store repositories.Store, publisher lib.Publisher, locker lib.Locker) *BookingService {
	if publisher == nil {
		publisher = lib.LogPublisher{}
	}
	if locker == nil {
		locker = lib.NewLocalLocker()
	}
	return &BookingService{
		store:     store,
		publisher: publisher,
		locker:    locker,
		now:       time.Now,
	}
}

func pairKey(userID, eventID uint) string {
	return fmt.Sprintf("booking:%d:%d", userID, eventID)
}

func (s *BookingService) acquire(ctx context.Context, userID, eventID uint) (func(), error) {
	release, err := s.locker.Acquire(ctx, pairKey(userID, eventID))
	if err != nil {
		if errors.Is(err, lib.ErrLockBusy) {
			return nil, ErrBookingInProgress
		}
		return nil, persistence(err)
	}
	return release, nil
}

// Book reserves one seat of the event for the user. The seat decrement, the
// new booking and the user's reference are committed together or not at all.
func (s *BookingService) Book(ctx context.Context, userID, eventID uint) (*models.Booking, error) {
	release, err := s.acquire(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	var booking *models.Booking
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		event, err := tx.Events().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}

		_, err = tx.Bookings().FindByUserAndEvent(ctx, user.ID, event.ID)
		if err == nil {
			return ErrAlreadyBooked
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return persistence(err)
		}

		if event.AvailableSeats == 0 {
			return ErrSeatsExhausted
		}
		taken, err := tx.Events().DecrementSeat(ctx, event.ID)
		if err != nil {
			return persistence(err)
		}
		if !taken {
			return ErrSeatsExhausted
		}

		b := &models.Booking{
			Reference:   uuid.New(),
			UserID:      user.ID,
			EventID:     event.ID,
			TotalPrice:  event.Price,
			BookingDate: s.now(),
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyBooked
			}
			return persistence(err)
		}
		if err := tx.Users().AddBookingRef(ctx, user.ID, b.ID); err != nil {
			return persistence(err)
		}
		booking = b
		return nil
	})
	if err != nil {
		err = asServiceError(err)
		logFailure("book", userID, eventID, err)
		return nil, err
	}

	s.publish(ctx, lib.NewActivity(types.ACTIVITY_BOOKING_CREATED, userSubject(userID), eventSubject(eventID), types.JSONB{
		"bookingId":  booking.ID,
		"reference":  booking.Reference.String(),
		"userId":     userID,
		"eventId":    eventID,
		"totalPrice": booking.TotalPrice,
	}))
	return booking, nil
}

// Cancel releases the user's seat. Deleting the booking, returning the seat
// and removing the reference are committed together or not at all.
func (s *BookingService) Cancel(ctx context.Context, userID, eventID uint) error {
	release, err := s.acquire(ctx, userID, eventID)
	if err != nil {
		return err
	}
	defer release()

	var bookingID uint
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		event, err := tx.Events().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		booking, err := tx.Bookings().FindByUserAndEvent(ctx, user.ID, event.ID)
		if err != nil {
			return notFoundOr(err, ErrBookingNotFound)
		}
		referenced, err := tx.Users().HasBookingRef(ctx, user.ID, booking.ID)
		if err != nil {
			return persistence(err)
		}
		if !referenced {
			return ErrNotBooked
		}

		if err := tx.Bookings().Delete(ctx, booking.ID); err != nil {
			return persistence(err)
		}
		returned, err := tx.Events().IncrementSeat(ctx, event.ID)
		if err != nil {
			return persistence(err)
		}
		if !returned {
			log.Printf("[booking] event %d already had all %d seats available when booking %d was cancelled\n", event.ID, event.TotalSeats, booking.ID)
		}
		if _, err := tx.Users().RemoveBookingRef(ctx, user.ID, booking.ID); err != nil {
			return persistence(err)
		}
		bookingID = booking.ID
		return nil
	})
	if err != nil {
		err = asServiceError(err)
		logFailure("cancel", userID, eventID, err)
		return err
	}

	s.publish(ctx, lib.NewActivity(types.ACTIVITY_BOOKING_CANCELLED, userSubject(userID), eventSubject(eventID), types.JSONB{
		"bookingId": bookingID,
		"userId":    userID,
		"eventId":   eventID,
	}))
	return nil
}

// ListUserBookings returns the user's bookings, newest first, each with a
// summary of its event.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint) ([]models.Booking, error) {
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	bookings, err := s.store.Bookings().ListByUser(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	return bookings, nil
}

// ListEventBookings returns the event's bookings with the public identity of
// each booker.
func (s *BookingService) ListEventBookings(ctx context.Context, eventID uint) ([]models.Booking, error) {
	if _, err := s.store.Events().FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, ErrEventNotFound)
	}
	bookings, err := s.store.Bookings().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, persistence(err)
	}
	return bookings, nil
}

func (s *BookingService) publish(ctx context.Context, activity lib.Activity) {
	publish(ctx, s.publisher, activity)
}

// publish runs after commit; a broker failure is logged and never undoes the write.
func publish(ctx context.Context, p lib.Publisher, activity lib.Activity) {
	if err := p.Publish(ctx, activity); err != nil {
		log.Printf("[activity] could not publish %s for %s: %s\n", activity.Type, activity.Subject, err.Error())
	}
}

func logFailure(op string, userID, eventID uint, err error) {
	if KindOf(err) == KindPersistence {
		log.Printf("[booking] %s user=%d event=%d failed: %s\n", op, userID, eventID, err.Error())
	}
}

func userSubject(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func eventSubject(id uint) string {
	return fmt.Sprintf("event:%d", id)
}
