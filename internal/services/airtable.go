package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const DefaultAirtableBaseURL = "https://api.airtable.com/v0"

type AirtableConfig struct {
	APIKey    string
	BaseID    string
	TableName string
	BaseURL   string
}

// AirtableService writes subscription records into an Airtable table.
// Each Subscribe call makes exactly one request: no retry and no client
// timeout beyond the caller's context.
type AirtableService struct {
	cfg        AirtableConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure AirtableService implements Subscriber interface
var _ Subscriber = (*AirtableService)(nil)

type airtableFields struct {
	Email  string `json:"Email"`
	Source string `json:"Source"`
}

type airtableCreateRequest struct {
	Fields airtableFields `json:"fields"`
}

func NewAirtableService(cfg AirtableConfig, logger *slog.Logger) *AirtableService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAirtableBaseURL
	}
	if cfg.TableName == "" {
		cfg.TableName = "Leads"
	}
	return &AirtableService{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (a *AirtableService) Configured() bool {
	return a.cfg.APIKey != "" && a.cfg.BaseID != ""
}

func (a *AirtableService) tableURL() string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(a.cfg.BaseURL, "/"),
		url.PathEscape(a.cfg.BaseID),
		url.PathEscape(a.cfg.TableName))
}

func (a *AirtableService) Subscribe(ctx context.Context, email, source string) error {
	if !a.Configured() {
		a.logger.Error("Missing Airtable configuration",
			"has_api_key", a.cfg.APIKey != "",
			"has_base_id", a.cfg.BaseID != "")
		return ErrSubscriberNotConfigured
	}

	body, err := json.Marshal(airtableCreateRequest{
		Fields: airtableFields{Email: email, Source: source},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal airtable request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tableURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errorData any
		if err := json.Unmarshal(respBody, &errorData); err != nil {
			return fmt.Errorf("failed to decode airtable error (status %d): %w", resp.StatusCode, err)
		}
		a.logger.Error("Airtable error",
			"status", resp.StatusCode,
			"body", errorData)
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	a.logger.Debug("Airtable record created", "table", a.cfg.TableName, "source", source)
	return nil
}
