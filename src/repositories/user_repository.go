package repositories

import (
	"context"
	"eventbooking/src/models"
	"eventbooking/src/utils"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Create returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error

	BookingRefs(ctx context.Context, userID uint) ([]uint, error)
	HasBookingRef(ctx context.Context, userID, bookingID uint) (bool, error)
	AddBookingRef(ctx context.Context, userID, bookingID uint) error
	RemoveBookingRef(ctx context.Context, userID, bookingID uint) (bool, error)
	// RemoveBookingRefs pulls the ids from every user's set.
	RemoveBookingRefs(ctx context.Context, bookingIDs []uint) (int64, error)
	// PruneDanglingRefs drops references whose booking is gone or belongs to someone else.
	PruneDanglingRefs(ctx context.Context) (int64, error)
	// RestoreMissingRefs adds the references missing for existing bookings.
	RestoreMissingRefs(ctx context.Context) (int64, error)
}

type gormUserRepo struct {
	db *gorm.DB
}

func (r *gormUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", utils.NormalizeEmail(email)).
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepo) Create(ctx context.Context, user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Omit("BookingRefs").Create(user).Error; err != nil {
		err = translate(err)
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *gormUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	res := r.db.WithContext(ctx).
		Model(user).
		Select("first_name", "last_name", "email", "updated_at").
		Updates(user)
	if res.Error != nil {
		err := translate(res.Error)
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUserRepo) BookingRefs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.UserBooking{}).
		Where("user_id = ?", userID).
		Order("booking_id ASC").
		Pluck("booking_id", &ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("booking refs of user %d: %w", userID, err)
	}
	return ids, nil
}

func (r *gormUserRepo) HasBookingRef(ctx context.Context, userID, bookingID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.UserBooking{}).
		Where("user_id = ? AND booking_id = ?", userID, bookingID).
		Count(&n).
		Error
	if err != nil {
		return false, fmt.Errorf("booking ref %d of user %d: %w", bookingID, userID, err)
	}
	return n > 0, nil
}

func (r *gormUserRepo) AddBookingRef(ctx context.Context, userID, bookingID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserBooking{UserID: userID, BookingID: bookingID}).
		Error
	if err != nil {
		return fmt.Errorf("add booking ref %d to user %d: %w", bookingID, userID, err)
	}
	return nil
}

func (r *gormUserRepo) RemoveBookingRef(ctx context.Context, userID, bookingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND booking_id = ?", userID, bookingID).
		Delete(&models.UserBooking{})
	if res.Error != nil {
		return false, fmt.Errorf("remove booking ref %d from user %d: %w", bookingID, userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormUserRepo) RemoveBookingRefs(ctx context.Context, bookingIDs []uint) (int64, error) {
	if len(bookingIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("booking_id IN ?", bookingIDs).
		Delete(&models.UserBooking{})
	if res.Error != nil {
		return 0, fmt.Errorf("remove booking refs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

const pruneDanglingRefsQuery = `
DELETE FROM user_bookings ub
WHERE NOT EXISTS (
	SELECT 1 FROM bookings b WHERE b.id = ub.booking_id AND b.user_id = ub.user_id
)`

const restoreMissingRefsQuery = `
INSERT INTO user_bookings (user_id, booking_id, created_at)
SELECT b.user_id, b.id, NOW() FROM bookings b
WHERE NOT EXISTS (
	SELECT 1 FROM user_bookings ub WHERE ub.booking_id = b.id AND ub.user_id = b.user_id
)
ON CONFLICT DO NOTHING`

func (r *gormUserRepo) PruneDanglingRefs(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(pruneDanglingRefsQuery)
	if res.Error != nil {
		return 0, fmt.Errorf("prune dangling refs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormUserRepo) RestoreMissingRefs(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(restoreMissingRefsQuery)
	if res.Error != nil {
		return 0, fmt.Errorf("restore missing refs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
