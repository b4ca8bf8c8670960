package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Store, func()) {
	t.Helper()
	db := setupWebhookTestDB(t)
	// httptest targets are plain http
	store := NewStore(db, true)
	recorder := NewRecorder(db, 5*time.Second, 3)
	dispatcher := NewDispatcher(store, recorder, 2, 32)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)

	return dispatcher, store, func() {
		dispatcher.Stop()
		cancel()
	}
}

func TestDispatcherTrigger(t *testing.T) {
	t.Run("DeliversToMatchingSubscription", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		var mu sync.Mutex
		var bodies []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			mu.Lock()
			bodies = append(bodies, string(buf))
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		mustSubscribe(t, store, "T1", "invoice.created", server.URL)

		dispatcher.Trigger("invoice.created", "T1", map[string]interface{}{"invoiceId": 42}, "")
		stop()

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, bodies, 1)
		assert.Contains(t, bodies[0], `"invoiceId":42`)
		assert.Contains(t, bodies[0], `"eventType":"invoice.created"`)
		assert.Contains(t, bodies[0], `"clientCode":"T1"`)

		events, total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, models.WebhookStatusDelivered, events[0].Status)
		assert.NotNil(t, events[0].SubscriptionID)
	})

	t.Run("NoMatchNoSpecificURLIsNoOp", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		mustSubscribe(t, store, "T1", "quotation.*", "https://hooks.example.com/q")

		dispatcher.Trigger("invoice.updated", "T1", nil, "")
		stop()

		_, total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})

	t.Run("SpecificURLAlwaysDelivered", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		// No subscriptions at all
		dispatcher.Trigger("rfid.scan.completed", "T1", map[string]interface{}{"tags": 12}, server.URL)
		stop()

		events, total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		require.EqualValues(t, 1, total)
		assert.Nil(t, events[0].SubscriptionID)
		assert.Equal(t, server.URL, events[0].TargetURL)
		// Specific-URL payloads are never signed
		assert.NotContains(t, events[0].PayloadJSON, "signature")
	})

	t.Run("SignsPayloadWhenSecretConfigured", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		var body []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			body = buf
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		_, err := store.Subscribe("T1", SubscribeInput{
			EventTypePattern: "invoice.*",
			TargetURL:        server.URL,
			SecretKey:        "topsecret",
		})
		require.NoError(t, err)

		dispatcher.Trigger("invoice.created", "T1", map[string]interface{}{"invoiceId": 1}, "")
		stop()

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		signature, ok := payload["signature"].(string)
		require.True(t, ok)
		require.NotEmpty(t, signature)

		// The signature must verify against the payload serialized without
		// the signature field, in wire field order
		timestamp, err := time.Parse(time.RFC3339Nano, payload["timestamp"].(string))
		require.NoError(t, err)
		unsigned, err := json.Marshal(&Payload{
			EventType:  payload["eventType"].(string),
			ClientCode: payload["clientCode"].(string),
			Timestamp:  timestamp,
			Data:       payload["data"],
		})
		require.NoError(t, err)
		assert.True(t, VerifySignature(unsigned, "topsecret", signature))
	})

	t.Run("TargetFailureDoesNotAffectOthers", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		mustSubscribe(t, store, "T1", "invoice.created", "http://127.0.0.1:1/hook")
		mustSubscribe(t, store, "T1", "invoice.created", server.URL)

		dispatcher.Trigger("invoice.created", "T1", nil, "")
		stop()

		_, delivered, err := store.ListEvents("T1", EventHistoryFilter{Status: models.WebhookStatusDelivered})
		require.NoError(t, err)
		assert.EqualValues(t, 1, delivered)

		_, failed, err := store.ListEvents("T1", EventHistoryFilter{Status: models.WebhookStatusFailed})
		require.NoError(t, err)
		assert.EqualValues(t, 1, failed)
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		mustSubscribe(t, store, "T2", "invoice.created", server.URL)

		dispatcher.Trigger("invoice.created", "T1", nil, "")
		stop()

		_, t1Total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, t1Total)

		_, t2Total, err := store.ListEvents("T2", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, t2Total)
	})

	t.Run("TriggerAfterStopIsDropped", func(t *testing.T) {
		dispatcher, store, stop := newTestDispatcher(t)
		stop()

		dispatcher.Trigger("invoice.created", "T1", nil, "")

		_, total, err := store.ListEvents("T1", EventHistoryFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})
}
