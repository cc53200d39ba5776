package services

import (
	"context"
	"eventbooking/src/lib"
	"eventbooking/src/models"
	"eventbooking/src/types"
	"fmt"
	"sync"
	"time"
)

type recordingPublisher struct {
	mu         sync.Mutex
	activities []lib.Activity
	err        error
}

func (p *recordingPublisher) Publish(_ context.Context, activity lib.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.activities = append(p.activities, activity)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Types() []types.ActivityType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.ActivityType, 0, len(p.activities))
	for _, a := range p.activities {
		out = append(out, a.Type)
	}
	return out
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, lib.ErrLockBusy
}

var eventDay = time.Date(2030, time.March, 14, 0, 0, 0, 0, time.UTC)

func newEvent(name string, totalSeats, availableSeats uint) models.Event {
	return models.Event{
		Name:           name,
		Slug:           name,
		Description:    "An event used by the booking tests",
		Date:           eventDay,
		Time:           "07:30 PM",
		EventDateTime:  eventDay.Add(19*time.Hour + 30*time.Minute),
		Price:          25,
		TotalSeats:     totalSeats,
		AvailableSeats: availableSeats,
		Location:       "Main hall",
		Organizer:      models.Organizer{Name: "Org", Email: "org@example.com", Phone: "+15555550100"},
	}
}

func newUser(n int) models.User {
	return models.User{
		FirstName: fmt.Sprintf("User%d", n),
		LastName:  "Tester",
		Email:     fmt.Sprintf("user%d@example.com", n),
		Role:      types.ROLE_USER,
	}
}
