package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"course-payments/internal/domain"
	"course-payments/internal/domain/ports/adapter"
)

// Client talks to the hosted auth backend (GoTrue-compatible REST API).
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

var _ adapter.IdentityProvider = (*Client)(nil)

type signUpRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

type signUpResponse struct {
	ID   string `json:"id"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password string, meta map[string]string) (string, error) {
	body, status, err := c.post(ctx, "/auth/v1/signup", signUpRequest{Email: email, Password: password, Data: meta})
	if err != nil {
		return "", err
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict ||
		(status >= 400 && strings.Contains(strings.ToLower(string(body)), "already registered")) {
		return "", domain.ErrAlreadyExists
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("identity: signup returned %d: %s", status, string(body))
	}

	var resp signUpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("identity: unmarshal signup response: %w", err)
	}
	id := resp.ID
	if id == "" {
		id = resp.User.ID
	}
	if id == "" {
		return "", fmt.Errorf("identity: signup response missing user id")
	}
	return id, nil
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*adapter.IdentitySession, error) {
	body, status, err := c.post(ctx, "/auth/v1/token?grant_type=password", passwordGrantRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("identity: token returned %d: %s", status, string(body))
	}
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("identity: unmarshal token response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("identity: token response missing access_token")
	}
	return &adapter.IdentitySession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("identity: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("identity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("identity: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("identity: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
