package models

import (
	"eventbooking/src/types"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Reference   uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"reference"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_bookings_user_event" json:"userId"`
	EventID     uint      `gorm:"not null;uniqueIndex:idx_bookings_user_event;index" json:"eventId"`
	TotalPrice  float64   `gorm:"not null;check:chk_bookings_total_price,total_price >= 0" json:"totalPrice"`
	BookingDate time.Time `gorm:"not null" json:"bookingDate"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User  *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`
}

func (b *Booking) Response() types.APIResponseBooking {
	res := types.APIResponseBooking{
		ID:          b.ID,
		Reference:   b.Reference.String(),
		UserID:      b.UserID,
		EventID:     b.EventID,
		TotalPrice:  b.TotalPrice,
		BookingDate: b.BookingDate,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Event != nil {
		res.Event = b.Event.Summary()
	}
	if b.User != nil {
		u := b.User.Public()
		res.User = &u
	}
	return res
}
