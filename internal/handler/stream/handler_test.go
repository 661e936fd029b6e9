package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
)

type fakeTransport struct {
	script func(cb chatservice.Callbacks) error
}

func (f *fakeTransport) StreamChat(_ context.Context, _ chatservice.Request, cb chatservice.Callbacks) error {
	return f.script(cb)
}

func postStream(t *testing.T, transport chatservice.Transport, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(transport).RegisterRoutes(r)

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/public/chat/stream", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// parseEvents decodes every data frame of the SSE body.
func parseEvents(t *testing.T, body string) []event {
	t.Helper()
	var events []event
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if !strings.HasPrefix(block, "data: ") {
			continue
		}
		var ev event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(block, "data: ")), &ev); err != nil {
			t.Fatalf("bad event payload %q: %v", block, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestStreamEmitsTokensThenDone(t *testing.T) {
	transport := &fakeTransport{script: func(cb chatservice.Callbacks) error {
		cb.OnToken("Hel")
		cb.OnToken("lo!")
		cb.OnDone("Hello!", []string{"What licence do I need?"})
		return nil
	}}

	resp := postStream(t, transport, map[string]any{"message": "Hi", "sessionId": "abc"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	events := parseEvents(t, resp.Body.String())
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != "token" || events[0].Content != "Hel" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != "token" || events[1].Content != "lo!" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	done := events[2]
	if done.Type != "done" || done.Content != "Hello!" {
		t.Fatalf("unexpected terminal event: %+v", done)
	}
	if !reflect.DeepEqual(done.SuggestedQuestions, []string{"What licence do I need?"}) {
		t.Fatalf("unexpected suggestions: %v", done.SuggestedQuestions)
	}
}

func TestStreamEmitsErrorEvent(t *testing.T) {
	transport := &fakeTransport{script: func(cb chatservice.Callbacks) error {
		cb.OnToken("partial")
		cb.OnError("network drop")
		return nil
	}}

	resp := postStream(t, transport, map[string]any{"message": "Hi"})
	events := parseEvents(t, resp.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Type != "error" || events[1].Content != "network drop" {
		t.Fatalf("unexpected terminal event: %+v", events[1])
	}
}

func TestStreamTransportFailureBecomesErrorEvent(t *testing.T) {
	transport := &fakeTransport{script: func(chatservice.Callbacks) error {
		return errors.New("dial refused")
	}}

	resp := postStream(t, transport, map[string]any{"message": "Hi"})
	events := parseEvents(t, resp.Body.String())
	if len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if !strings.Contains(events[0].Content, unavailableReply) {
		t.Fatalf("unexpected error content: %q", events[0].Content)
	}
}

func TestStreamRejectsBlankMessage(t *testing.T) {
	resp := postStream(t, &fakeTransport{script: func(chatservice.Callbacks) error { return nil }},
		map[string]any{"message": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
