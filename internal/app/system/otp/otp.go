// Package otp verifies phone-verification tokens issued by the external SMS
// OTP widget. The browser completes the OTP flow with the provider and hands
// us the provider's access token; we exchange it for the verified number.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrNotVerified covers every way a token can fail to verify. Callers map it
// to 401 without further detail.
var ErrNotVerified = errors.New("otp: token not verified")

// Verifier resolves a verification token to the verified phone number.
type Verifier interface {
	Verify(ctx context.Context, token string) (phone string, err error)
}

// Config configures a Client.
type Config struct {
	VerifyURL  string
	AuthKey    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the provider's verify-access-token endpoint.
type Client struct {
	url        string
	authKey    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.VerifyURL == "" {
		return nil, fmt.Errorf("otp: verify url is required")
	}
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("otp: auth key is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{url: cfg.VerifyURL, authKey: cfg.AuthKey, httpClient: hc, log: logger}, nil
}

type verifyRequest struct {
	AuthKey     string `json:"authkey"`
	AccessToken string `json:"access-token"`
}

type verifyResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Verify returns the number the provider verified for token. Transport
// failures are returned wrapped; every rejection is ErrNotVerified.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNotVerified
	}
	body, err := json.Marshal(verifyRequest{AuthKey: c.authKey, AccessToken: token})
	if err != nil {
		return "", fmt.Errorf("otp: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("otp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("otp: verify request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("otp: read response: %w", err)
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("otp provider returned non-JSON response", zap.Int("status", resp.StatusCode))
		return "", ErrNotVerified
	}
	if resp.StatusCode != http.StatusOK || !strings.EqualFold(out.Type, "success") || out.Message == "" {
		c.log.Info("otp token rejected", zap.Int("status", resp.StatusCode), zap.String("type", out.Type))
		return "", ErrNotVerified
	}
	return out.Message, nil
}
