package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider is the external identity provider the shim delegates to. The
// service holds no user state of its own.
type Provider interface {
	CreateUser(ctx context.Context, username, email, tempPassword string) error
	UpdateUserAttributes(ctx context.Context, username string, attrs map[string]string) error
}

// HTTPProvider talks to the identity provider's admin API with a shared key.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) CreateUser(ctx context.Context, username, email, tempPassword string) error {
	payload := map[string]any{
		"username":           username,
		"email":              email,
		"temporary_password": tempPassword,
		"suppress_message":   true,
	}
	return p.do(ctx, http.MethodPost, "/admin/users", payload)
}

func (p *HTTPProvider) UpdateUserAttributes(ctx context.Context, username string, attrs map[string]string) error {
	payload := map[string]any{
		"username":   username,
		"attributes": attrs,
	}
	return p.do(ctx, http.MethodPut, "/admin/users/attributes", payload)
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity provider responded %d", resp.StatusCode)
	}
	return nil
}
