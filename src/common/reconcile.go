package common

import (
	"context"
	"errors"
	"eventbooking/src/lib"
	"eventbooking/src/repositories"
	"eventbooking/src/types"
	"log"
	"time"
)

// Reconciler finds drift between seat counters, bookings and users'
// reference sets left behind by writes that bypassed the booking service.
// Unless repair is set it only reports: every pass runs in a transaction
// that is rolled back.
type Reconciler struct {
	store     repositories.Store
	publisher lib.Publisher
	repair    bool
	timeout   time.Duration
}

var errDryRun = errors.New("reconcile dry run")

// ReconcileReport counts what a pass fixed, or would fix when Applied is
// false.
type ReconcileReport struct {
	PrunedRefs   int64
	RestoredRefs int64
	Repaired     []repositories.SeatDrift
	Applied      bool
}

func (r ReconcileReport) Changed() bool {
	return r.PrunedRefs > 0 || r.RestoredRefs > 0 || len(r.Repaired) > 0
}

func NewReconciler(store repositories.Store, publisher lib.Publisher, repair bool) *Reconciler {
	if publisher == nil {
		publisher = lib.LogPublisher{}
	}
	return &Reconciler{store: store, publisher: publisher, repair: repair, timeout: time.Minute}
}

// Run performs one pass inside a single transaction, committed only when
// the reconciler repairs.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	err := r.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		if report.PrunedRefs, err = tx.Users().PruneDanglingRefs(ctx); err != nil {
			return err
		}
		if report.RestoredRefs, err = tx.Users().RestoreMissingRefs(ctx); err != nil {
			return err
		}
		drifts, err := tx.Events().SeatDrift(ctx)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			event, err := tx.Events().FindByIDForUpdate(ctx, d.EventID)
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			booked, err := tx.Bookings().CountByEvent(ctx, event.ID)
			if err != nil {
				return err
			}
			expected := repositories.ExpectedSeats(event.TotalSeats, booked)
			if expected == event.AvailableSeats {
				continue
			}
			if err := tx.Events().SetAvailableSeats(ctx, event.ID, expected); err != nil {
				return err
			}
			report.Repaired = append(report.Repaired, repositories.SeatDrift{
				EventID:        event.ID,
				TotalSeats:     event.TotalSeats,
				AvailableSeats: event.AvailableSeats,
				Booked:         booked,
			})
		}
		if !r.repair {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}
	report.Applied = r.repair

	if !report.Changed() {
		return report, nil
	}
	mode, kind := "repaired", types.ACTIVITY_RECONCILE_REPAIRED
	if !report.Applied {
		mode, kind = "detected", types.ACTIVITY_RECONCILE_DETECTED
	}
	for _, d := range report.Repaired {
		log.Printf("[reconcile] %s event %d: available %d -> %d (%d booked of %d)\n", mode, d.EventID, d.AvailableSeats, d.Expected(), d.Booked, d.TotalSeats)
	}
	log.Printf("[reconcile] %s %d dangling and %d missing booking references\n", mode, report.PrunedRefs, report.RestoredRefs)

	repaired := make([]uint, 0, len(report.Repaired))
	for _, d := range report.Repaired {
		repaired = append(repaired, d.EventID)
	}
	activity := lib.NewActivity(kind, "reconciler", "reconcile", types.JSONB{
		"prunedRefs":   report.PrunedRefs,
		"restoredRefs": report.RestoredRefs,
		"events":       repaired,
	})
	if err := r.publisher.Publish(ctx, activity); err != nil {
		log.Printf("[reconcile] could not publish report: %s\n", err.Error())
	}
	return report, nil
}

// Job is the scheduler entry point.
func (r *Reconciler) Job() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.Run(ctx); err != nil {
		log.Printf("[reconcile] pass failed: %s\n", err.Error())
	}
}
