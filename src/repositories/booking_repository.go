package repositories

import (
	"context"
	"eventbooking/src/models"
	"eventbooking/src/models/scopes"
	"fmt"

	"gorm.io/gorm"
)

type BookingRepo interface {
	// Create returns ErrDuplicate when the (user, event) pair is already booked.
	Create(ctx context.Context, booking *models.Booking) error
	FindByUserAndEvent(ctx context.Context, userID, eventID uint) (*models.Booking, error)
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	ListByEvent(ctx context.Context, eventID uint) ([]models.Booking, error)
	// DeleteByEvent removes every booking of the event and returns their ids.
	DeleteByEvent(ctx context.Context, eventID uint) ([]uint, error)
	CountByEvent(ctx context.Context, eventID uint) (uint, error)
	EventIDsByUser(ctx context.Context, userID uint) ([]uint, error)
}

type gormBookingRepo struct {
	db *gorm.DB
}

func (r *gormBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Omit("Event", "User").Create(booking).Error; err != nil {
		err = translate(err)
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *gormBookingRepo) FindByUserAndEvent(ctx context.Context, userID, eventID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithUser(userID), scopes.WithEvent(eventID)).
		First(&booking).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (r *gormBookingRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Booking{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete booking %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormBookingRepo) ListByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithUser(userID)).
		Preload("Event", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "date", "time", "price")
		}).
		Order("booking_date DESC").
		Find(&bookings).
		Error
	if err != nil {
		return nil, fmt.Errorf("list bookings of user %d: %w", userID, err)
	}
	return bookings, nil
}

func (r *gormBookingRepo) ListByEvent(ctx context.Context, eventID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithEvent(eventID)).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "first_name", "last_name", "email", "role")
		}).
		Order("booking_date ASC").
		Find(&bookings).
		Error
	if err != nil {
		return nil, fmt.Errorf("list bookings of event %d: %w", eventID, err)
	}
	return bookings, nil
}

func (r *gormBookingRepo) DeleteByEvent(ctx context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithEvent(eventID)).
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("collect bookings of event %d: %w", eventID, err)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Scopes(scopes.WithIDs(ids...)).Delete(&models.Booking{}).Error; err != nil {
		return nil, fmt.Errorf("delete bookings of event %d: %w", eventID, err)
	}
	return ids, nil
}

func (r *gormBookingRepo) CountByEvent(ctx context.Context, eventID uint) (uint, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithEvent(eventID)).
		Count(&n).
		Error
	if err != nil {
		return 0, fmt.Errorf("count bookings of event %d: %w", eventID, err)
	}
	return uint(n), nil
}

func (r *gormBookingRepo) EventIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithUser(userID)).
		Pluck("event_id", &ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("booked events of user %d: %w", userID, err)
	}
	return ids, nil
}
