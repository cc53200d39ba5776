package repositories

import (
	"context"
	"eventbooking/src/models"
	"eventbooking/src/models/scopes"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type EventRepo interface {
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	// FindByIDForUpdate row-locks the event until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ListFrom(ctx context.Context, from time.Time) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	UpdateDetails(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
	// DecrementSeat takes one seat only while one is left. It reports false
	// when the counter was already zero.
	DecrementSeat(ctx context.Context, id uint) (bool, error)
	// IncrementSeat gives one seat back without passing total_seats. It
	// reports false when the counter was already full.
	IncrementSeat(ctx context.Context, id uint) (bool, error)
	SetAvailableSeats(ctx context.Context, id uint, seats uint) error
	SeatDrift(ctx context.Context) ([]SeatDrift, error)
}

// SeatDrift is an event whose counter disagrees with its booking count.
type SeatDrift struct {
	EventID        uint
	TotalSeats     uint
	AvailableSeats uint
	Booked         uint
}

func (d SeatDrift) Expected() uint {
	return ExpectedSeats(d.TotalSeats, d.Booked)
}

func ExpectedSeats(total, booked uint) uint {
	if booked >= total {
		return 0
	}
	return total - booked
}

var detailColumns = []string{
	"name", "slug", "description", "date", "time", "event_date_time", "price",
	"location", "organizer_name", "organizer_email", "organizer_phone", "updated_at",
}

type gormEventRepo struct {
	db *gorm.DB
}

func (r *gormEventRepo) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Scopes(scopes.ForUpdate).
		First(&event, id).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepo) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		Order("id ASC").
		First(&event).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepo) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).Scopes(scopes.BySchedule).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (r *gormEventRepo) ListFrom(ctx context.Context, from time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Scopes(scopes.StartingFrom(from), scopes.BySchedule).
		Find(&events).
		Error
	if err != nil {
		return nil, fmt.Errorf("list events from %s: %w", from.Format(time.RFC3339), err)
	}
	return events, nil
}

func (r *gormEventRepo) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", translate(err))
	}
	return nil
}

func (r *gormEventRepo) UpdateDetails(ctx context.Context, event *models.Event) error {
	res := r.db.WithContext(ctx).
		Model(event).
		Select(detailColumns).
		Updates(event)
	if res.Error != nil {
		return fmt.Errorf("update event %d: %w", event.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormEventRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete event %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormEventRepo) DecrementSeat(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND available_seats > 0", id).
		UpdateColumn("available_seats", gorm.Expr("available_seats - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("decrement seats of event %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormEventRepo) IncrementSeat(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND available_seats < total_seats", id).
		UpdateColumn("available_seats", gorm.Expr("available_seats + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment seats of event %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormEventRepo) SetAvailableSeats(ctx context.Context, id uint, seats uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND total_seats >= ?", id, seats).
		UpdateColumn("available_seats", seats)
	if res.Error != nil {
		return fmt.Errorf("set seats of event %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const seatDriftQuery = `
SELECT e.id AS event_id, e.total_seats, e.available_seats, COUNT(b.id) AS booked
FROM events e
LEFT JOIN bookings b ON b.event_id = e.id
GROUP BY e.id, e.total_seats, e.available_seats
HAVING e.available_seats <> GREATEST(e.total_seats - COUNT(b.id), 0)
ORDER BY e.id`

func (r *gormEventRepo) SeatDrift(ctx context.Context) ([]SeatDrift, error) {
	var drifts []SeatDrift
	if err := r.db.WithContext(ctx).Raw(seatDriftQuery).Scan(&drifts).Error; err != nil {
		return nil, fmt.Errorf("seat drift: %w", err)
	}
	return drifts, nil
}
