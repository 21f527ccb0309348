package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/internal/handlers"
)

const DefaultTimeout = 30 * time.Second

// APIError is a non-success response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Message)
}

// Client talks to the session and subscribe endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Ping reports whether the API answers its health check.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) CreateSession(ctx context.Context) (*handlers.SessionResponse, error) {
	return c.session(ctx, http.MethodPost, "/v1/sessions", nil, http.StatusCreated)
}

func (c *Client) Start(ctx context.Context, id uuid.UUID) (*handlers.SessionResponse, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "start"), nil, http.StatusOK)
}

func (c *Client) Continue(ctx context.Context, id uuid.UUID) (*handlers.SessionResponse, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "continue"), nil, http.StatusOK)
}

func (c *Client) Move(ctx context.Context, id uuid.UUID, direction string) (*handlers.SessionResponse, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "move"), handlers.MoveRequest{Direction: direction}, http.StatusOK)
}

func (c *Client) Answer(ctx context.Context, id uuid.UUID, choice string) (*handlers.SessionResponse, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "answer"), handlers.AnswerRequest{Choice: choice}, http.StatusOK)
}

// Subscribe sends an email to the sign-up proxy.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	body, err := c.do(ctx, http.MethodPost, "/api/subscribe", handlers.SubscribeRequest{Email: email}, http.StatusOK)
	if err != nil {
		return err
	}
	var resp handlers.SubscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse subscribe response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("subscribe failed: %s", resp.Message)
	}
	return nil
}

func sessionPath(id uuid.UUID, action string) string {
	return fmt.Sprintf("/v1/sessions/%s/%s", id, action)
}

func (c *Client) session(ctx context.Context, method, path string, payload any, wantStatus int) (*handlers.SessionResponse, error) {
	body, err := c.do(ctx, method, path, payload, wantStatus)
	if err != nil {
		return nil, err
	}
	var resp handlers.SessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if resp.Session == nil {
		return nil, fmt.Errorf("session response has no session")
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, wantStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, &APIError{Status: resp.StatusCode, Message: string(body)}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: errorResp.Error}
	}
	return body, nil
}
