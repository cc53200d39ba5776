package services

import (
	"context"
	"eventbooking/src/lib"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"eventbooking/src/types"
	"log"
	"strconv"
	"time"
)

type EventService struct {
	store     repositories.Store
	publisher lib.Publisher
	now       func() time.Time
}

func NewEventService(store repositories.Store, publisher lib.Publisher) *EventService {
	if publisher == nil {
		publisher = lib.LogPublisher{}
	}
	return &EventService{store: store, publisher: publisher, now: time.Now}
}

// EventChanges lists the descriptive fields an admin may edit. Seat counts
// are not among them.
type EventChanges struct {
	Name           *string
	Description    *string
	Date           *time.Time
	Time           *string
	Price          *float64
	Location       *string
	OrganizerName  *string
	OrganizerEmail *string
	OrganizerPhone *string
}

type EventListing struct {
	models.Event
	Registered bool `json:"registered"`
}

// Create stores a new event with every seat available, whatever the caller
// put in AvailableSeats.
func (s *EventService) Create(ctx context.Context, event *models.Event) error {
	event.ID = 0
	if err := event.Prepare(true); err != nil {
		return invalid(err.Error(), err)
	}
	if err := s.store.Events().Create(ctx, event); err != nil {
		return persistence(err)
	}
	log.Printf("[events] created event %d %q with %d seats\n", event.ID, event.Name, event.TotalSeats)
	return nil
}

func (s *EventService) Update(ctx context.Context, id uint, changes EventChanges) (*models.Event, error) {
	var updated *models.Event
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		event, err := tx.Events().FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		changes.apply(event)
		if err := event.Prepare(false); err != nil {
			return invalid(err.Error(), err)
		}
		if err := tx.Events().UpdateDetails(ctx, event); err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return updated, nil
}

func (c EventChanges) apply(e *models.Event) {
	if c.Name != nil {
		e.Name = *c.Name
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.Date != nil {
		e.Date = *c.Date
	}
	if c.Time != nil {
		e.Time = *c.Time
	}
	if c.Price != nil {
		e.Price = *c.Price
	}
	if c.Location != nil {
		e.Location = *c.Location
	}
	if c.OrganizerName != nil {
		e.Organizer.Name = *c.OrganizerName
	}
	if c.OrganizerEmail != nil {
		e.Organizer.Email = *c.OrganizerEmail
	}
	if c.OrganizerPhone != nil {
		e.Organizer.Phone = *c.OrganizerPhone
	}
}

// Delete removes the event together with all of its bookings and every
// user reference to those bookings.
func (s *EventService) Delete(ctx context.Context, id uint) error {
	var bookingIDs []uint
	var refs int64
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := tx.Events().FindByIDForUpdate(ctx, id); err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		ids, err := tx.Bookings().DeleteByEvent(ctx, id)
		if err != nil {
			return persistence(err)
		}
		n, err := tx.Users().RemoveBookingRefs(ctx, ids)
		if err != nil {
			return persistence(err)
		}
		if err := tx.Events().Delete(ctx, id); err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		bookingIDs, refs = ids, n
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}
	log.Printf("[events] deleted event %d with %d bookings and %d user references\n", id, len(bookingIDs), refs)
	publish(ctx, s.publisher, lib.NewActivity(types.ACTIVITY_EVENT_DELETED, "admin", eventSubject(id), types.JSONB{
		"eventId":    id,
		"bookingIds": bookingIDs,
		"references": refs,
	}))
	return nil
}

// Get resolves key as a numeric id first and as a slug otherwise.
func (s *EventService) Get(ctx context.Context, key string) (*models.Event, error) {
	var (
		event *models.Event
		err   error
	)
	if id, perr := strconv.ParseUint(key, 10, 64); perr == nil {
		event, err = s.store.Events().FindByID(ctx, uint(id))
	} else {
		event, err = s.store.Events().FindBySlug(ctx, key)
	}
	if err != nil {
		return nil, notFoundOr(err, ErrEventNotFound)
	}
	return event, nil
}

// List returns every event, flagging the ones the user has booked.
func (s *EventService) List(ctx context.Context, userID uint) ([]EventListing, error) {
	events, err := s.store.Events().List(ctx)
	if err != nil {
		return nil, persistence(err)
	}
	booked, err := s.store.Bookings().EventIDsByUser(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	registered := make(map[uint]bool, len(booked))
	for _, id := range booked {
		registered[id] = true
	}
	listings := make([]EventListing, 0, len(events))
	for _, e := range events {
		listings = append(listings, EventListing{Event: e, Registered: registered[e.ID]})
	}
	return listings, nil
}

// Upcoming returns the events that have not started yet, soonest first.
func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.Events().ListFrom(ctx, s.now())
	if err != nil {
		return nil, persistence(err)
	}
	return events, nil
}
