package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/internal/services/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent returns the next "event:" and "data:" pair from the stream,
// skipping keepalive comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var eventType, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestEventsHandler_StreamsSessionEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = client.Close() // Ignore error in defer
	}()

	handler := NewEventsHandler(client, testLogger())
	server := httptest.NewServer(handler)
	defer server.Close()

	id := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/sessions/"+id.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	eventType, data := readEvent(t, reader)
	assert.Equal(t, "connected", eventType)
	assert.Contains(t, data, id.String())

	broadcaster := events.NewBroadcaster(client, testLogger())
	require.NoError(t, broadcaster.PublishGarlicCollected(ctx, id, 2, 2))

	eventType, data = readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeGarlicCollected), eventType)
	assert.JSONEq(t, `{"garlics":2,"stage":2}`, data)
}

func TestEventsHandler_Keepalive(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = client.Close() // Ignore error in defer
	}()

	handler := NewEventsHandler(client, testLogger()).WithKeepalive(20 * time.Millisecond)
	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/sessions/"+uuid.NewString(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == ": keepalive\n" {
			return
		}
	}
}

func TestEventsHandler_BadRequests(t *testing.T) {
	handler := NewEventsHandler(nil, testLogger())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"wrong method", http.MethodPost, "/v1/events/sessions/" + uuid.NewString(), http.StatusMethodNotAllowed},
		{"wrong path", http.MethodGet, "/v1/events/games/" + uuid.NewString(), http.StatusBadRequest},
		{"invalid id", http.MethodGet, "/v1/events/sessions/tiger", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, errorMessage(t, w))
		})
	}
}
