package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opsdash/opsdash/utils"
)

// Google verifier error constants
var (
	ErrIDTokenRejected  = errors.New("google rejected the ID token")
	ErrAudienceMismatch = errors.New("ID token was issued for a different client")
	ErrEmailUnverified  = errors.New("google account email is not verified")
)

// GoogleIdentity is the subset of tokeninfo fields the dashboard cares about
type GoogleIdentity struct {
	Email   string
	Name    string
	Picture string
	Subject string
}

// GoogleVerifier validates Google ID tokens handed over by the frontend
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleVerifierImpl validates tokens against Google's tokeninfo endpoint
type GoogleVerifierImpl struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewGoogleVerifier creates a new verifier. An empty baseURL falls back to the
// public tokeninfo endpoint; tests point it at a local server.
func NewGoogleVerifier(baseURL, clientID string, timeout time.Duration) GoogleVerifier {
	if baseURL == "" {
		baseURL = "https://oauth2.googleapis.com/tokeninfo"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GoogleVerifierImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ClientID:   clientID,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

type tokeninfoResp struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Exp           string `json:"exp"`
}

// Verify checks the token with Google and returns the asserted identity
func (v *GoogleVerifierImpl) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	endpoint := v.BaseURL + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrIDTokenRejected
	}

	var out tokeninfoResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if v.ClientID != "" && out.Aud != v.ClientID {
		return nil, ErrAudienceMismatch
	}
	if out.EmailVerified != "true" {
		return nil, ErrEmailUnverified
	}
	if out.Exp != "" {
		if exp, err := strconv.ParseInt(out.Exp, 10, 64); err == nil {
			if utils.UTCNow().After(time.Unix(exp, 0)) {
				return nil, ErrIDTokenRejected
			}
		}
	}

	return &GoogleIdentity{
		Email:   strings.ToLower(out.Email),
		Name:    out.Name,
		Picture: out.Picture,
		Subject: out.Sub,
	}, nil
}
