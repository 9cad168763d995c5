package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/threadline-io/threadline/internal/compose"
	"github.com/threadline-io/threadline/internal/inject"
)

func setupAPITestRouter() (*chi.Mux, testStores) {
	svc, stores := newTestThreadService()
	injector := inject.NewInjector(
		svc,
		compose.NewAssembler("https://threads.acme.test"),
		inject.Options{Enabled: true, AutoThread: true, InjectPreviousMessages: true, IncludeUnsubscribeLink: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	handler := NewAPIHandler(injector)

	r := chi.NewRouter()
	r.Post("/api/v1/send-events", handler.HandleSendEvent)
	return r, stores
}

func postSendEvent(t *testing.T, router *chi.Mux, payload map[string]interface{}) (*httptest.ResponseRecorder, sendEventResponse) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var res sendEventResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
	}
	return rr, res
}

func sendEventPayload(subject, content string, sentAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		"contact":    map[string]interface{}{"id": 42, "email": "ann@example.com", "first_name": "Ann"},
		"subject":    subject,
		"content":    content,
		"from_email": "news@acme.test",
		"from_name":  "Acme",
		"source":     "email",
		"sent_at":    sentAt.Format(time.RFC3339),
	}
}

func TestHandleSendEvent_FirstMessage(t *testing.T) {
	router, stores := setupAPITestRouter()

	rr, res := postSendEvent(t, router, sendEventPayload("Hello", "<p>Welcome.</p>", time.Now()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if res.Content != "<p>Welcome.</p>" {
		t.Errorf("content changed: %q", res.Content)
	}
	if res.Injected {
		t.Error("first message must not be injected into")
	}
	if !res.Recorded {
		t.Error("expected message to be recorded")
	}
	if n := len(stores.messages.messages); n != 1 {
		t.Errorf("expected 1 thread with messages, got %d", n)
	}
}

func TestHandleSendEvent_ReplyGetsHistory(t *testing.T) {
	router, _ := setupAPITestRouter()
	base := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	postSendEvent(t, router, sendEventPayload("Hello", "<p>Welcome aboard.</p>", base))
	rr, res := postSendEvent(t, router, sendEventPayload("Re: Hello", "<p>Following up.</p>", base.Add(time.Hour)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !res.Injected || !res.Recorded {
		t.Fatalf("expected injected and recorded, got %+v", res)
	}
	if !strings.Contains(res.Content, compose.Marker) {
		t.Error("response content missing history marker")
	}
	if !strings.Contains(res.Content, "Welcome aboard.") {
		t.Errorf("response content missing prior excerpt: %s", res.Content)
	}
}

func TestHandleSendEvent_AlreadyMarkedContentUnchanged(t *testing.T) {
	router, stores := setupAPITestRouter()

	body := `<p>Hi.</p><div class="` + compose.Marker + `">old</div>`
	rr, res := postSendEvent(t, router, sendEventPayload("Hello", body, time.Now()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if res.Content != body {
		t.Error("marked content must pass through unchanged")
	}
	if res.Injected || res.Recorded {
		t.Errorf("expected a no-op, got %+v", res)
	}
	if len(stores.messages.messages) != 0 {
		t.Error("expected no messages recorded")
	}
}

func TestHandleSendEvent_InvalidJSON(t *testing.T) {
	router, _ := setupAPITestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-events", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
