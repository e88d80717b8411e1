package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		require.Equal(t, "2350", r.PostForm.Get("amount"))
		require.Equal(t, "eur", r.PostForm.Get("currency"))
		require.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
		require.Equal(t, "3:2,7:1", r.PostForm.Get("metadata[items]"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":            "pi_123",
			"client_secret": "pi_123_secret_abc",
			"amount":        2350,
			"currency":      "eur",
			"status":        "requires_payment_method",
			"metadata":      map[string]string{"items": "3:2,7:1"},
		})
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_123")
	client.BaseURL = srv.URL

	intent, err := client.CreatePaymentIntent(context.Background(), 2350, "EUR", map[string]string{"items": "3:2,7:1"})
	require.NoError(t, err)
	require.Equal(t, "pi_123", intent.ID)
	require.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	require.Equal(t, int64(2350), intent.Amount)
}

func TestGetPaymentIntentProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type":    "invalid_request_error",
				"message": "No such payment_intent: 'pi_missing'",
			},
		})
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_123")
	client.BaseURL = srv.URL

	_, err := client.GetPaymentIntent(context.Background(), "pi_missing")
	var pe *ProcessorError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, http.StatusNotFound, pe.StatusCode)
	require.Equal(t, "invalid_request_error", pe.Type)
	require.Contains(t, pe.Message, "pi_missing")
}

func TestUpdateIntentMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ord_42", r.PostForm.Get("metadata[order_id]"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "pi_123",
			"status":   "succeeded",
			"metadata": map[string]string{"order_id": "ord_42"},
		})
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_123")
	client.BaseURL = srv.URL

	intent, err := client.UpdateIntentMetadata(context.Background(), "pi_123", map[string]string{"order_id": "ord_42"})
	require.NoError(t, err)
	require.Equal(t, "ord_42", intent.Metadata["order_id"])
}

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestConstructEventValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded"}}}`)
	now := time.Now()

	event, err := constructEventAt(payload, signPayload(t, payload, "whsec_test", now), "whsec_test", now)
	require.NoError(t, err)
	require.Equal(t, EventPaymentIntentSucceeded, event.Type)

	var intent PaymentIntent
	require.NoError(t, json.Unmarshal(event.Data.Object, &intent))
	require.Equal(t, "pi_123", intent.ID)
}

func TestConstructEventWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Now()

	_, err := constructEventAt(payload, signPayload(t, payload, "whsec_other", now), "whsec_test", now)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestConstructEventTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Now()
	header := signPayload(t, payload, "whsec_test", now)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.failed"}`)
	_, err := constructEventAt(tampered, header, "whsec_test", now)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestConstructEventStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	signedAt := time.Now().Add(-10 * time.Minute)

	_, err := constructEventAt(payload, signPayload(t, payload, "whsec_test", signedAt), "whsec_test", time.Now())
	require.ErrorIs(t, err, ErrSignatureExpired)
}

func TestConstructEventMalformedHeader(t *testing.T) {
	_, err := constructEventAt([]byte(`{}`), "v1=deadbeef", "whsec_test", time.Now())
	require.ErrorIs(t, err, ErrInvalidSignatureHeader)

	_, err = constructEventAt([]byte(`{}`), "", "whsec_test", time.Now())
	require.ErrorIs(t, err, ErrInvalidSignatureHeader)
}

func TestConstructEventSecondSignatureMatches(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Now()

	mac := hmac.New(sha256.New, []byte("whsec_new"))
	fmt.Fprintf(mac, "%d.%s", now.Unix(), payload)
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), "00ff00ff", hex.EncodeToString(mac.Sum(nil)))

	event, err := constructEventAt(payload, header, "whsec_new", now)
	require.NoError(t, err)
	require.Equal(t, "evt_1", event.ID)
}
