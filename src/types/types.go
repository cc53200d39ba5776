package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Timestamps carries no DeletedAt: events, bookings and references are hard-deleted.
type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt,omitempty"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Role string

const (
	ROLE_USER  Role = "user"
	ROLE_ADMIN Role = "admin"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type EventLookupParams struct {
	Key string `uri:"id" binding:"required"`
}

type EventBookingsParams struct {
	EventID uint `uri:"eventId" binding:"required"`
}

type BookingRequestBody struct {
	EventID uint `json:"eventId" binding:"required"`
}

type OrganizerBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,phone"`
}

type CreateEventRequestBody struct {
	Name        string         `json:"name" binding:"required,min=3"`
	Description string         `json:"description" binding:"required,min=20"`
	Date        string         `json:"date" binding:"required,eventdate"`
	Time        string         `json:"time" binding:"required,eventtime"`
	Price       *float64       `json:"price" binding:"required,gte=0"`
	TotalSeats  uint           `json:"totalSeats" binding:"required,min=1"`
	Location    string         `json:"location" binding:"required"`
	Organizer   *OrganizerBody `json:"organizer" binding:"required"`
	// accepted for compatibility, always replaced by TotalSeats
	AvailableSeats *uint `json:"availableSeats,omitempty"`
}

type UpdateOrganizerBody struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,phone"`
}

type UpdateEventRequestBody struct {
	Name           *string              `json:"name,omitempty" binding:"omitempty,min=3"`
	Description    *string              `json:"description,omitempty" binding:"omitempty,min=20"`
	Date           *string              `json:"date,omitempty" binding:"omitempty,eventdate"`
	Time           *string              `json:"time,omitempty" binding:"omitempty,eventtime"`
	Price          *float64             `json:"price,omitempty" binding:"omitempty,gte=0"`
	Location       *string              `json:"location,omitempty" binding:"omitempty,min=1"`
	Organizer      *UpdateOrganizerBody `json:"organizer,omitempty"`
	TotalSeats     *uint                `json:"totalSeats,omitempty"`
	AvailableSeats *uint                `json:"availableSeats,omitempty"`
}

type RegisterUserRequestBody struct {
	FirstName string `json:"firstName" binding:"required,min=3"`
	LastName  string `json:"lastName" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequestBody struct {
	FirstName string  `json:"firstName" binding:"required,min=3"`
	LastName  string  `json:"lastName" binding:"required,min=3"`
	Email     string  `json:"email" binding:"required,email"`
	Password  *string `json:"password,omitempty"`
}

type APIResponseUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

type APIResponseEventSummary struct {
	ID    uint      `json:"id"`
	Name  string    `json:"name,omitempty"`
	Date  time.Time `json:"date"`
	Time  string    `json:"time,omitempty"`
	Price float64   `json:"price"`
}

type APIResponseBooking struct {
	ID          uint      `json:"id"`
	Reference   string    `json:"reference,omitempty"`
	UserID      uint      `json:"userId"`
	EventID     uint      `json:"eventId"`
	TotalPrice  float64   `json:"totalPrice"`
	BookingDate time.Time `json:"bookingDate"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`

	Event *APIResponseEventSummary `json:"event,omitempty"`
	User  *APIResponseUser         `json:"user,omitempty"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  APIResponseUser `json:"user"`
}

type ActivityType string

const (
	ACTIVITY_BOOKING_CREATED    ActivityType = "booking.created"
	ACTIVITY_BOOKING_CANCELLED  ActivityType = "booking.cancelled"
	ACTIVITY_EVENT_DELETED      ActivityType = "event.deleted"
	ACTIVITY_RECONCILE_REPAIRED ActivityType = "reconcile.repaired"
	ACTIVITY_RECONCILE_DETECTED ActivityType = "reconcile.detected"
)

const ACTIVITY_TOPIC = "booking-activity"

// Handler processes one consumed message. A non-nil error leaves the message
// with the broker for redelivery.
type Handler func(payload string) error
