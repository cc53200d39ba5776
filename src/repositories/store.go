package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the three repositories. Atomic runs fn against a Store bound
// to a single transaction: every write made through it commits or rolls back
// together.
type Store interface {
	Events() EventRepo
	Bookings() BookingRepo
	Users() UserRepo
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Events() EventRepo {
	return &gormEventRepo{db: s.db}
}

func (s *GormStore) Bookings() BookingRepo {
	return &gormBookingRepo{db: s.db}
}

func (s *GormStore) Users() UserRepo {
	return &gormUserRepo{db: s.db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
