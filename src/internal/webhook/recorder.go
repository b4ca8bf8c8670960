package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

const (
	// transportRetryDelay is the wait applied after a transport failure
	// before the row becomes eligible for retry.
	transportRetryDelay = 5 * time.Minute

	// maxResponseBytes bounds how much of the subscriber's response is kept
	maxResponseBytes = 10 * 1024
)

// Recorder persists one delivery attempt row per target and performs the
// actual HTTP POST. Retries mutate the same row rather than inserting new
// ones.
type Recorder struct {
	db         *gorm.DB
	client     *http.Client
	maxRetries int
}

// NewRecorder creates a delivery recorder with a bounded HTTP timeout
func NewRecorder(db *gorm.DB, timeout time.Duration, maxRetries int) *Recorder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}
	return &Recorder{
		db: db,
		client: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}
}

// Deliver inserts a pending attempt row, POSTs the payload, and records the
// outcome. A 2xx response marks the row Delivered. A non-2xx response marks
// it Failed with the status code and response body as error context. A
// transport error marks it Failed with the error message and schedules the
// first retry window.
func (r *Recorder) Deliver(ctx context.Context, eventType, targetURL, payloadJSON, clientCode string, subscriptionID *uuid.UUID) error {
	event := &models.WebhookEvent{
		ClientCode:     clientCode,
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		TargetURL:      targetURL,
		Status:         models.WebhookStatusPending,
		PayloadJSON:    payloadJSON,
		MaxRetries:     r.maxRetries,
		IsActive:       true,
	}

	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create delivery record: %w", err)
	}

	statusCode, responseBody, err := r.post(ctx, targetURL, payloadJSON)

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"response_status_code": statusCode,
		"response_body":        responseBody,
	}

	switch {
	case err != nil:
		nextRetry := now.Add(transportRetryDelay)
		updates["status"] = models.WebhookStatusFailed
		updates["error_message"] = err.Error()
		updates["next_retry_at"] = &nextRetry
	case statusCode >= 200 && statusCode < 300:
		updates["status"] = models.WebhookStatusDelivered
		updates["delivered_on"] = &now
	default:
		updates["status"] = models.WebhookStatusFailed
		updates["error_message"] = fmt.Sprintf("received status %d", statusCode)
	}

	if dbErr := r.db.Model(&models.WebhookEvent{}).Where("id = ?", event.ID).Updates(updates).Error; dbErr != nil {
		return fmt.Errorf("failed to record delivery outcome: %w", dbErr)
	}

	if err != nil {
		return fmt.Errorf("delivery to %s failed: %w", targetURL, err)
	}
	return nil
}

// RetryFailed re-attempts eligible failed deliveries for the tenant and
// returns how many were delivered successfully. Rows at the retry ceiling
// are terminal and never selected. Each row is retried independently; a
// failure on one row does not abort the rest.
func (r *Recorder) RetryFailed(ctx context.Context, clientCode string) (int, error) {
	now := time.Now().UTC()

	var events []models.WebhookEvent
	err := r.db.
		Where("client_code = ? AND status = ? AND retry_count < max_retries", clientCode, models.WebhookStatusFailed).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Find(&events).Error
	if err != nil {
		return 0, fmt.Errorf("failed to select retryable deliveries: %w", err)
	}

	retried := 0
	for i := range events {
		if r.retryOne(ctx, &events[i]) {
			retried++
		}
	}

	return retried, nil
}

// retryOne re-attempts a single delivery row and reports success
func (r *Recorder) retryOne(ctx context.Context, event *models.WebhookEvent) bool {
	// Backoff is computed from the moment of this retry pass, so irregular
	// polling shifts the schedule rather than catching up.
	now := time.Now().UTC()
	retryCount := event.RetryCount + 1
	nextRetry := now.Add(time.Duration(1<<retryCount) * time.Minute)

	err := r.db.Model(&models.WebhookEvent{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
		"retry_count":   retryCount,
		"status":        models.WebhookStatusRetrying,
		"next_retry_at": &nextRetry,
	}).Error
	if err != nil {
		log.Printf("webhook retry: failed to mark %s retrying: %v", event.ID, err)
		return false
	}

	// Replay the stored payload byte-for-byte
	statusCode, responseBody, postErr := r.post(ctx, event.TargetURL, event.PayloadJSON)

	completedAt := time.Now().UTC()
	updates := map[string]interface{}{
		"response_status_code": statusCode,
		"response_body":        responseBody,
	}

	success := postErr == nil && statusCode >= 200 && statusCode < 300
	if success {
		updates["status"] = models.WebhookStatusDelivered
		updates["delivered_on"] = &completedAt
		updates["error_message"] = ""
	} else {
		updates["status"] = models.WebhookStatusFailed
		if postErr != nil {
			updates["error_message"] = postErr.Error()
		} else {
			updates["error_message"] = fmt.Sprintf("received status %d", statusCode)
		}
	}

	if err := r.db.Model(&models.WebhookEvent{}).Where("id = ?", event.ID).Updates(updates).Error; err != nil {
		log.Printf("webhook retry: failed to record outcome for %s: %v", event.ID, err)
		return false
	}

	return success
}

// post sends the payload and returns the subscriber's status code and a
// bounded slice of its response body
func (r *Recorder) post(ctx context.Context, targetURL, payloadJSON string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewBufferString(payloadJSON))
	if err != nil {
		return 0, "", fmt.Errorf("request creation error: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "GemVault-Webhook/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, string(body), nil
}
