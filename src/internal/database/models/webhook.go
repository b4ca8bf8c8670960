package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery attempt statuses. Transitions are monotonic except for the retry
// loop: failed -> retrying -> delivered|failed.
const (
	WebhookStatusPending   = "pending"
	WebhookStatusDelivered = "delivered"
	WebhookStatusFailed    = "failed"
	WebhookStatusRetrying  = "retrying"
)

// DefaultMaxRetries is the retry ceiling for a delivery attempt record.
const DefaultMaxRetries = 3

// WebhookSubscription registers an outbound callback for a tenant. The
// event-type pattern is either an exact event name, the universal wildcard
// "*", or a prefix wildcard like "quotation.*". Unsubscribing deactivates the
// row; subscriptions are never hard-deleted so delivery history stays linked.
type WebhookSubscription struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ClientCode       string     `json:"client_code" gorm:"size:32;index;not null"`
	EventTypePattern string     `json:"event_type_pattern" gorm:"size:255;not null"`
	TargetURL        string     `json:"target_url" gorm:"type:text;not null"`
	SecretKey        string     `json:"-" gorm:"type:text"` // HMAC secret, never serialized
	Description      string     `json:"description" gorm:"type:text"`
	IsActive         bool       `json:"is_active"`
	CreatedOn        time.Time  `json:"created_on" gorm:"autoCreateTime"`
	UpdatedOn        *time.Time `json:"updated_on,omitempty" gorm:"autoUpdateTime:false"`
}

// WebhookEvent is one delivery attempt record for one target of one
// triggered event. Retries mutate the same row rather than inserting new
// ones, so retry_count and status always describe the latest attempt.
type WebhookEvent struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ClientCode         string     `json:"client_code" gorm:"size:32;index;not null"`
	SubscriptionID     *uuid.UUID `json:"subscription_id,omitempty" gorm:"type:uuid;index"` // nil for specific-URL deliveries
	EventType          string     `json:"event_type" gorm:"size:255;not null;index"`
	TargetURL          string     `json:"target_url" gorm:"type:text;not null"`
	Status             string     `json:"status" gorm:"size:16;not null;index"`
	PayloadJSON        string     `json:"payload_json" gorm:"type:text"`
	ResponseBody       string     `json:"response_body,omitempty" gorm:"type:text"`
	ResponseStatusCode int        `json:"response_status_code,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount         int        `json:"retry_count" gorm:"default:0"`
	MaxRetries         int        `json:"max_retries" gorm:"default:3"`
	CreatedOn          time.Time  `json:"created_on" gorm:"autoCreateTime;index"`
	DeliveredOn        *time.Time `json:"delivered_on,omitempty"`
	NextRetryAt        *time.Time `json:"next_retry_at,omitempty"`
	IsActive           bool       `json:"is_active"`
}

func (s *WebhookSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = DefaultMaxRetries
	}
	return nil
}
