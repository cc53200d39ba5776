package models

import (
	"eventbooking/src/types"
	"time"

	"github.com/google/uuid"
)

// TrailLog is the audit record written for every consumed activity message.
type TrailLog struct {
	ID        uuid.UUID   `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	MessageID string      `gorm:"uniqueIndex" json:"messageId"`
	Type      string      `gorm:"index" json:"type"`
	Initiator string      `json:"initiator"`
	Group     string      `json:"group"`
	Subject   string      `gorm:"index" json:"subject"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"createdAt"`
}
