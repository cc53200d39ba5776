package models

import (
	"eventbooking/src/types"
	"eventbooking/src/utils"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Event struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Slug           string    `gorm:"index" json:"slug"`
	Description    string    `gorm:"not null" json:"description"`
	Date           time.Time `gorm:"type:date;not null" json:"date"`
	Time           string    `gorm:"not null" json:"time"`
	EventDateTime  time.Time `gorm:"index" json:"eventDateTime"`
	Price          float64   `gorm:"not null;check:chk_events_price,price >= 0" json:"price"`
	TotalSeats     uint      `gorm:"not null;check:chk_events_total_seats,total_seats >= 1" json:"totalSeats"`
	AvailableSeats uint      `gorm:"not null;check:chk_events_available_seats,available_seats <= total_seats" json:"availableSeats"`
	Location       string    `gorm:"not null" json:"location"`
	Organizer      Organizer `gorm:"embedded;embeddedPrefix:organizer_" json:"organizer"`

	Bookings []Booking `gorm:"foreignKey:event_id" json:"-"`

	types.Timestamps
}

// Prepare normalizes user input and fills the derived fields. A new event
// always starts with every seat available.
func (e *Event) Prepare(isNew bool) error {
	if isNew {
		e.AvailableSeats = e.TotalSeats
	}
	e.Name = strings.TrimSpace(e.Name)
	e.Location = strings.TrimSpace(e.Location)
	e.Time = strings.ToUpper(strings.TrimSpace(e.Time))
	e.Organizer.Name = strings.TrimSpace(e.Organizer.Name)
	e.Organizer.Email = strings.ToLower(strings.TrimSpace(e.Organizer.Email))
	e.Organizer.Phone = strings.TrimSpace(e.Organizer.Phone)
	e.Slug = slug.Make(e.Name)

	at, err := utils.CombineDateAndClock(e.Date, e.Time)
	if err != nil {
		return err
	}
	e.EventDateTime = at
	return nil
}

func (e *Event) Summary() *types.APIResponseEventSummary {
	return &types.APIResponseEventSummary{
		ID:    e.ID,
		Name:  e.Name,
		Date:  e.Date,
		Time:  e.Time,
		Price: e.Price,
	}
}
