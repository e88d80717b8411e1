package google_auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTokenInfoServer(t *testing.T, aud string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"aud":            aud,
			"sub":            "107957594907070425244",
			"email":          "reader@example.com",
			"email_verified": "true",
			"name":           "Reader",
		})
	}))
}

func TestVerifyIDToken(t *testing.T) {
	srv := newTokenInfoServer(t, "client-123")
	defer srv.Close()

	verifier := NewGoogleAuthVerifier("client-123")
	verifier.Endpoint = srv.URL

	info, err := verifier.VerifyIDToken(context.Background(), "good-token")
	require.NoError(t, err)
	require.Equal(t, "107957594907070425244", info.Sub)
	require.Equal(t, "reader@example.com", info.Email)
}

func TestVerifyIDTokenWrongAudience(t *testing.T) {
	srv := newTokenInfoServer(t, "someone-else")
	defer srv.Close()

	verifier := NewGoogleAuthVerifier("client-123")
	verifier.Endpoint = srv.URL

	_, err := verifier.VerifyIDToken(context.Background(), "good-token")
	require.ErrorContains(t, err, "not issued for this application")
}

func TestVerifyIDTokenRejected(t *testing.T) {
	srv := newTokenInfoServer(t, "client-123")
	defer srv.Close()

	verifier := NewGoogleAuthVerifier("client-123")
	verifier.Endpoint = srv.URL

	_, err := verifier.VerifyIDToken(context.Background(), "bad-token")
	require.ErrorContains(t, err, "invalid token")
}
