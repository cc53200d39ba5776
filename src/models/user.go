package models

import (
	"eventbooking/src/types"
	"time"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	FirstName    string     `gorm:"not null" json:"firstName"`
	LastName     string     `gorm:"not null" json:"lastName"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         types.Role `gorm:"default:'user';not null" json:"role"`

	BookingRefs []UserBooking `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}

func (u *User) IsAdmin() bool {
	return u.Role == types.ROLE_ADMIN
}

func (u *User) Public() types.APIResponseUser {
	return types.APIResponseUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// UserBooking is one entry in a user's booking-reference set. It has no
// foreign key to bookings; the booking service keeps both sides in step.
type UserBooking struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	BookingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"bookingId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
