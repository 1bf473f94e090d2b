package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrInvalidToken = errors.New("access token rejected")

// Identity is what the identity service reports for a valid access token.
type Identity struct {
	UserID   string   `json:"user_id"`
	DeviceID string   `json:"device_id"`
	Roles    []string `json:"roles"`
}

// TokenValidator validates end-user access tokens (used where the gateway
// cannot inject headers, e.g. EventSource requests).
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken, deviceID string) (*Identity, error)
}

type IdentityClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewIdentityClient(baseURL, token string) *IdentityClient {
	return &IdentityClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ValidateToken calls /auth/validate on the identity service.
func (c *IdentityClient) ValidateToken(ctx context.Context, accessToken, deviceID string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{
		"access_token": accessToken,
		"device_id":    deviceID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/validate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("identity service returned %d: %s", resp.StatusCode, msg)
	}

	var out Identity
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if out.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &out, nil
}
