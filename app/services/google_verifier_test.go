package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokeninfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestGoogleVerifier_Success(t *testing.T) {
	exp := time.Now().Add(1 * time.Hour).Unix()
	server := tokeninfoServer(t, http.StatusOK, fmt.Sprintf(`{
		"aud": "client-123",
		"sub": "1234567890",
		"email": "Ops@Example.com",
		"email_verified": "true",
		"name": "Ops Person",
		"picture": "https://example.com/avatar.png",
		"exp": "%d"
	}`, exp))
	defer server.Close()

	verifier := NewGoogleVerifier(server.URL, "client-123", 5*time.Second)

	identity, err := verifier.Verify(context.Background(), "stub-id-token")
	require.NoError(t, err)
	require.NotNil(t, identity)

	// Emails are normalized to lower case for the allow-list lookup
	assert.Equal(t, "ops@example.com", identity.Email)
	assert.Equal(t, "Ops Person", identity.Name)
	assert.Equal(t, "1234567890", identity.Subject)
}

func TestGoogleVerifier_RejectedToken(t *testing.T) {
	server := tokeninfoServer(t, http.StatusBadRequest, `{"error": "invalid_token"}`)
	defer server.Close()

	verifier := NewGoogleVerifier(server.URL, "client-123", 5*time.Second)

	_, err := verifier.Verify(context.Background(), "stub-id-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIDTokenRejected)
}

func TestGoogleVerifier_AudienceMismatch(t *testing.T) {
	server := tokeninfoServer(t, http.StatusOK, `{
		"aud": "some-other-client",
		"email": "ops@example.com",
		"email_verified": "true"
	}`)
	defer server.Close()

	verifier := NewGoogleVerifier(server.URL, "client-123", 5*time.Second)

	_, err := verifier.Verify(context.Background(), "stub-id-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestGoogleVerifier_UnverifiedEmail(t *testing.T) {
	server := tokeninfoServer(t, http.StatusOK, `{
		"aud": "client-123",
		"email": "ops@example.com",
		"email_verified": "false"
	}`)
	defer server.Close()

	verifier := NewGoogleVerifier(server.URL, "client-123", 5*time.Second)

	_, err := verifier.Verify(context.Background(), "stub-id-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailUnverified)
}

func TestGoogleVerifier_ExpiredToken(t *testing.T) {
	exp := time.Now().Add(-1 * time.Hour).Unix()
	server := tokeninfoServer(t, http.StatusOK, fmt.Sprintf(`{
		"aud": "client-123",
		"email": "ops@example.com",
		"email_verified": "true",
		"exp": "%d"
	}`, exp))
	defer server.Close()

	verifier := NewGoogleVerifier(server.URL, "client-123", 5*time.Second)

	_, err := verifier.Verify(context.Background(), "stub-id-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIDTokenRejected)
}
