package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventTimeout is how long a step waits for each expected event
const EventTimeout = 3 * time.Second

// WatchEvents opens the session's SSE stream and sends each event type it
// receives until ctx is cancelled. The "connected" greeting is consumed before
// returning so callers only see events published after the stream is live.
func WatchEvents(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (<-chan string, error) {
	url := fmt.Sprintf("%s/v1/events/sessions/%s", baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("events endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	first, err := nextEventType(scanner)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if first != "connected" {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("expected connected event, got %q", first)
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		defer func() {
			_ = resp.Body.Close() // Ignore error in defer
		}()
		for {
			eventType, err := nextEventType(scanner)
			if err != nil {
				return
			}
			select {
			case out <- eventType:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// nextEventType reads lines until a complete event and returns its type.
// Comment lines such as keepalives are skipped.
func nextEventType(scanner *bufio.Scanner) (string, error) {
	var eventType string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case line == "" && eventType != "":
			return eventType, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("event stream read failed: %w", err)
	}
	return "", io.EOF
}

// QuietWindow is how long the stream must stay silent before a step starts.
// Pub/sub delivery lags the HTTP response, so a non-blocking drain would miss
// events from the previous step that are still in flight.
const QuietWindow = 150 * time.Millisecond

// drainEvents discards events from earlier steps until none arrive for quiet.
func drainEvents(ch <-chan string, quiet time.Duration) {
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			timer.Reset(quiet)
		case <-timer.C:
			return
		}
	}
}

// collectEvents waits for n events, giving up after EventTimeout per event.
func collectEvents(ctx context.Context, ch <-chan string, n int) []string {
	got := make([]string, 0, n)
	for len(got) < n {
		select {
		case eventType, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, eventType)
		case <-time.After(EventTimeout):
			return got
		case <-ctx.Done():
			return got
		}
	}
	return got
}
