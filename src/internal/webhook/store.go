package webhook

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
)

// Store manages webhook subscriptions and delivery history in the
// control-plane database. Every query is scoped by client code; there is no
// way to read or mutate another tenant's rows through this API.
type Store struct {
	db                   *gorm.DB
	allowInsecureTargets bool
}

// NewStore creates a subscription store. allowInsecureTargets permits plain
// http target URLs for deployments that deliver inside a private network;
// the default configuration requires https.
func NewStore(db *gorm.DB, allowInsecureTargets bool) *Store {
	return &Store{db: db, allowInsecureTargets: allowInsecureTargets}
}

// SubscribeInput carries the fields of a subscribe call
type SubscribeInput struct {
	EventTypePattern string `json:"event_type_pattern" validate:"required"`
	TargetURL        string `json:"target_url" validate:"required,url"`
	SecretKey        string `json:"secret_key"`
	Description      string `json:"description"`
}

// Subscribe registers a new active subscription for the tenant
func (s *Store) Subscribe(clientCode string, input SubscribeInput) (*models.WebhookSubscription, error) {
	input.EventTypePattern = strings.TrimSpace(input.EventTypePattern)
	input.TargetURL = strings.TrimSpace(input.TargetURL)

	if input.EventTypePattern == "" {
		return nil, errors.InvalidSubscriptionError("event_type_pattern is required")
	}
	if input.TargetURL == "" {
		return nil, errors.InvalidSubscriptionError("target_url is required")
	}
	u, err := url.Parse(input.TargetURL)
	if err != nil || u.Host == "" {
		return nil, errors.InvalidSubscriptionError("target_url must be an absolute URL")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !s.allowInsecureTargets {
			return nil, errors.InvalidSubscriptionError("target_url must use https")
		}
	default:
		return nil, errors.InvalidSubscriptionError("target_url must use https")
	}

	sub := &models.WebhookSubscription{
		ClientCode:       clientCode,
		EventTypePattern: input.EventTypePattern,
		TargetURL:        input.TargetURL,
		SecretKey:        input.SecretKey,
		Description:      input.Description,
		IsActive:         true,
	}

	if err := s.db.Create(sub).Error; err != nil {
		return nil, errors.DatabaseError("failed to create subscription", err)
	}

	return sub, nil
}

// ListSubscriptions returns the tenant's active subscriptions. When an event
// type filter is given, only subscriptions whose pattern equals the filter
// or whose wildcard would match it are returned.
func (s *Store) ListSubscriptions(clientCode, eventTypeFilter string) ([]models.WebhookSubscription, error) {
	var subs []models.WebhookSubscription
	err := s.db.
		Where("client_code = ? AND is_active = ?", clientCode, true).
		Order("created_on DESC").
		Find(&subs).Error
	if err != nil {
		return nil, errors.DatabaseError("failed to list subscriptions", err)
	}

	if eventTypeFilter == "" {
		return subs, nil
	}

	filtered := make([]models.WebhookSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.EventTypePattern == eventTypeFilter || PatternMatches(sub.EventTypePattern, eventTypeFilter) {
			filtered = append(filtered, sub)
		}
	}
	return filtered, nil
}

// MatchingSubscriptions returns the tenant's active subscriptions whose
// pattern matches the concrete event type.
func (s *Store) MatchingSubscriptions(clientCode, eventType string) ([]models.WebhookSubscription, error) {
	subs, err := s.ListSubscriptions(clientCode, "")
	if err != nil {
		return nil, err
	}

	matched := make([]models.WebhookSubscription, 0, len(subs))
	for _, sub := range subs {
		if PatternMatches(sub.EventTypePattern, eventType) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// Unsubscribe deactivates a subscription. The row is kept so delivery
// history stays linked. Attempting to unsubscribe another tenant's
// subscription fails and leaves it active.
func (s *Store) Unsubscribe(clientCode string, id uuid.UUID) error {
	now := time.Now().UTC()
	result := s.db.Model(&models.WebhookSubscription{}).
		Where("id = ? AND client_code = ? AND is_active = ?", id, clientCode, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_on": &now,
		})
	if result.Error != nil {
		return errors.DatabaseError("failed to unsubscribe", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("Subscription", id.String())
	}
	return nil
}

// EventHistoryFilter narrows delivery history queries
type EventHistoryFilter struct {
	EventType string
	Status    string
	Limit     int
	Offset    int
}

// ListEvents returns the tenant's delivery attempt history, newest first
func (s *Store) ListEvents(clientCode string, filter EventHistoryFilter) ([]models.WebhookEvent, int64, error) {
	tx := s.db.Model(&models.WebhookEvent{}).Where("client_code = ?", clientCode)

	if filter.EventType != "" {
		tx = tx.Where("event_type = ?", filter.EventType)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count events", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []models.WebhookEvent
	err := tx.Order("created_on DESC").Limit(limit).Offset(filter.Offset).Find(&events).Error
	if err != nil {
		return nil, 0, errors.DatabaseError("failed to list events", err)
	}

	return events, total, nil
}
