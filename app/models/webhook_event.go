package models

import "time"

const (
	WebhookStatusPending   = "pending"
	WebhookStatusProcessed = "processed"
	WebhookStatusError     = "error"
)

// WebhookEvent stores inbound provider webhook payloads. The unique event_id
// index is the idempotency gate for at-least-once deliveries.
type WebhookEvent struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EventID      string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_event_id" json:"event_id"`
	EventType    string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ResourceType string     `gorm:"type:varchar(50);not null;default:''" json:"resource_type"`
	ResourceID   string     `gorm:"type:varchar(191);not null;default:'';index" json:"resource_id"`
	Action       string     `gorm:"type:varchar(20);not null;default:''" json:"action"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_webhook_events_status_created,priority:1" json:"status"`
	Payload      string     `gorm:"type:longtext;not null" json:"payload"`
	Idempotent   bool       `gorm:"not null" json:"idempotent"`
	RetryCount   int        `gorm:"not null;default:0" json:"retry_count"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_webhook_events_status_created,priority:2" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	EventID      string
	EventType    string
	ResourceType string
	ResourceID   string
	Action       string
	Payload      string
	Idempotent   bool
}
