package common

import (
	"context"
	"encoding/json"
	"errors"
	"eventbooking/src/models"
	"eventbooking/src/types"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidActivity = errors.New("invalid activity message")

// TrailRecorder stores every consumed activity as a TrailLog row. Messages
// are keyed by their id, so redelivery is harmless.
type TrailRecorder struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewTrailRecorder(db *gorm.DB) *TrailRecorder {
	return &TrailRecorder{db: db, timeout: 5 * time.Second}
}

func (r *TrailRecorder) Record(ctx context.Context, body string) error {
	if !gjson.Valid(body) {
		return ErrInvalidActivity
	}
	msg := gjson.GetMany(body, "id", "type", "initiator", "subject", "payload")
	id, kind := msg[0].String(), msg[1].String()
	if id == "" || kind == "" {
		return fmt.Errorf("%w: missing id or type", ErrInvalidActivity)
	}

	var payload types.JSONB
	if p := msg[4]; p.Exists() && p.IsObject() {
		if err := json.Unmarshal([]byte(p.Raw), &payload); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidActivity, err.Error())
		}
	}

	trail := models.TrailLog{
		MessageID: id,
		Type:      kind,
		Initiator: msg[2].String(),
		Group:     activityGroup(kind),
		Subject:   msg[3].String(),
		Payload:   payload,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(&trail).
		Error
	if err != nil {
		return fmt.Errorf("record activity %s: %w", id, err)
	}
	return nil
}

// Handle adapts Record to the broker consumers' handler signature. Malformed
// messages are dropped; storage failures are returned so the broker keeps
// the message.
func (r *TrailRecorder) Handle(body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	err := r.Record(ctx, body)
	if errors.Is(err, ErrInvalidActivity) {
		log.Printf("[trail] dropped message: %s\n", err.Error())
		return nil
	}
	if err != nil {
		log.Printf("[trail] could not record message: %s\n", err.Error())
	}
	return err
}

func activityGroup(kind string) string {
	group, _, _ := strings.Cut(kind, ".")
	return group
}
