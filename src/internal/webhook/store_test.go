package webhook

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Auto migrate for tests
	err = db.AutoMigrate(
		&models.WebhookSubscription{},
		&models.WebhookEvent{},
	)
	require.NoError(t, err)

	return db
}

func TestStoreSubscribe(t *testing.T) {
	db := setupWebhookTestDB(t)
	store := NewStore(db, false)

	t.Run("CreatesActiveSubscription", func(t *testing.T) {
		sub, err := store.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.created",
			TargetURL:        "https://hooks.example.com/x",
			SecretKey:        "shh",
			Description:      "invoice hook",
		})
		require.NoError(t, err)
		assert.Equal(t, "T1", sub.ClientCode)
		assert.Equal(t, "invoice.created", sub.EventTypePattern)
		assert.True(t, sub.IsActive)
		assert.NotEqual(t, uuid.Nil, sub.ID)
	})

	t.Run("RejectsMissingPattern", func(t *testing.T) {
		_, err := store.Subscribe("T1", SubscribeInput{
			TargetURL: "https://hooks.example.com/x",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "event_type_pattern")
	})

	t.Run("RejectsMissingURL", func(t *testing.T) {
		_, err := store.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.created",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "target_url")
	})

	t.Run("RejectsPlainHTTPTarget", func(t *testing.T) {
		_, err := store.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.created",
			TargetURL:        "http://hooks.example.com/x",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "https")
	})

	t.Run("RejectsRelativeURL", func(t *testing.T) {
		_, err := store.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.created",
			TargetURL:        "/hooks/x",
		})
		assert.Error(t, err)
	})

	t.Run("AllowsPlainHTTPWhenConfigured", func(t *testing.T) {
		insecure := NewStore(db, true)
		sub, err := insecure.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.created",
			TargetURL:        "http://10.0.0.5/hooks",
		})
		require.NoError(t, err)
		assert.True(t, sub.IsActive)
	})
}

func TestStoreListSubscriptions(t *testing.T) {
	db := setupWebhookTestDB(t)
	store := NewStore(db, false)

	mustSubscribe(t, store, "T1", "invoice.created", "https://a.example.com")
	mustSubscribe(t, store, "T1", "quotation.*", "https://b.example.com")
	mustSubscribe(t, store, "T1", "*", "https://c.example.com")
	mustSubscribe(t, store, "T2", "invoice.created", "https://other.example.com")

	t.Run("ScopedToTenant", func(t *testing.T) {
		subs, err := store.ListSubscriptions("T1", "")
		require.NoError(t, err)
		assert.Len(t, subs, 3)
	})

	t.Run("FilterMatchesExactAndWildcards", func(t *testing.T) {
		subs, err := store.ListSubscriptions("T1", "quotation.created")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		patterns := []string{subs[0].EventTypePattern, subs[1].EventTypePattern}
		assert.Contains(t, patterns, "quotation.*")
		assert.Contains(t, patterns, "*")
	})

	t.Run("MatchingSubscriptions", func(t *testing.T) {
		subs, err := store.MatchingSubscriptions("T1", "invoice.created")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		patterns := []string{subs[0].EventTypePattern, subs[1].EventTypePattern}
		assert.Contains(t, patterns, "invoice.created")
		assert.Contains(t, patterns, "*")
	})
}

func TestStoreUnsubscribe(t *testing.T) {
	db := setupWebhookTestDB(t)
	store := NewStore(db, false)

	sub := mustSubscribe(t, store, "T1", "invoice.created", "https://a.example.com")

	t.Run("WrongTenantFailsAndLeavesActive", func(t *testing.T) {
		err := store.Unsubscribe("T2", sub.ID)
		assert.Error(t, err)

		var reloaded models.WebhookSubscription
		require.NoError(t, db.First(&reloaded, "id = ?", sub.ID).Error)
		assert.True(t, reloaded.IsActive)
	})

	t.Run("OwnerDeactivates", func(t *testing.T) {
		require.NoError(t, store.Unsubscribe("T1", sub.ID))

		var reloaded models.WebhookSubscription
		require.NoError(t, db.First(&reloaded, "id = ?", sub.ID).Error)
		assert.False(t, reloaded.IsActive)
		assert.NotNil(t, reloaded.UpdatedOn)

		// Deactivated subscriptions disappear from listings
		subs, err := store.ListSubscriptions("T1", "")
		require.NoError(t, err)
		assert.Len(t, subs, 0)
	})

	t.Run("UnknownIDFails", func(t *testing.T) {
		err := store.Unsubscribe("T1", uuid.New())
		assert.Error(t, err)
	})
}

func TestStoreListEvents(t *testing.T) {
	db := setupWebhookTestDB(t)
	store := NewStore(db, false)

	for _, e := range []models.WebhookEvent{
		{ClientCode: "T1", EventType: "invoice.created", TargetURL: "https://a", Status: models.WebhookStatusDelivered},
		{ClientCode: "T1", EventType: "invoice.created", TargetURL: "https://a", Status: models.WebhookStatusFailed},
		{ClientCode: "T1", EventType: "quotation.created", TargetURL: "https://b", Status: models.WebhookStatusFailed},
		{ClientCode: "T2", EventType: "invoice.created", TargetURL: "https://c", Status: models.WebhookStatusDelivered},
	} {
		row := e
		require.NoError(t, db.Create(&row).Error)
	}

	t.Run("ScopedToTenant", func(t *testing.T) {
		events, total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, events, 3)
	})

	t.Run("FilterByStatus", func(t *testing.T) {
		events, total, err := store.ListEvents("T1", EventHistoryFilter{Status: models.WebhookStatusFailed})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, events, 2)
	})

	t.Run("FilterByEventType", func(t *testing.T) {
		events, total, err := store.ListEvents("T1", EventHistoryFilter{EventType: "quotation.created"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, events, 1)
		assert.Equal(t, "quotation.created", events[0].EventType)
	})
}

func mustSubscribe(t *testing.T, store *Store, clientCode, pattern, url string) *models.WebhookSubscription {
	t.Helper()
	sub, err := store.Subscribe(clientCode, SubscribeInput{
		EventTypePattern: pattern,
		TargetURL:        url,
	})
	require.NoError(t, err)
	return sub
}
