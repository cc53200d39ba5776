package lib

import (
	"context"
	"encoding/json"
	"eventbooking/src/config"
	"eventbooking/src/types"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Activity is the message published after a booking-related write commits.
type Activity struct {
	ID         string             `json:"id"`
	Type       types.ActivityType `json:"type"`
	Initiator  string             `json:"initiator"`
	Subject    string             `json:"subject"`
	Payload    types.JSONB        `json:"payload,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

func NewActivity(t types.ActivityType, initiator, subject string, payload types.JSONB) Activity {
	return Activity{
		ID:         uuid.NewString(),
		Type:       t,
		Initiator:  initiator,
		Subject:    subject,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

func (a Activity) Encode() ([]byte, error) {
	return json.Marshal(a)
}

type Publisher interface {
	Publish(ctx context.Context, activity Activity) error
	Close()
}

// NewPublisher builds the transport named by BROKER. An empty kind only logs.
func NewPublisher(kind string) (Publisher, error) {
	switch kind {
	case "kafka":
		return NewKafkaPublisher("booking_activity_producer", types.ACTIVITY_TOPIC)
	case "rabbitmq":
		return NewRabbitClient(config.RabbitURL(), types.ACTIVITY_TOPIC, types.ACTIVITY_TOPIC+".audit")
	case "sns":
		return NewSNSPublisher(context.Background(), config.SNSTopicArn())
	case "":
		return LogPublisher{}, nil
	}
	return nil, fmt.Errorf("unknown broker %q", kind)
}

type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, activity Activity) error {
	log.Printf("[activity] %s %s by %s: %v\n", activity.Type, activity.Subject, activity.Initiator, activity.Payload)
	return nil
}

func (LogPublisher) Close() {}
