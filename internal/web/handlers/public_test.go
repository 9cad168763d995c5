package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/threadline-io/threadline/internal/models"
)

func setupPublicTestRouter() (*chi.Mux, testStores) {
	svc, stores := newTestThreadService()
	handler := NewPublicHandler(svc, testRenderer())

	r := chi.NewRouter()
	r.Get("/email-thread/{threadID}", handler.ShowThread)
	r.Get("/email-thread/{threadID}/embed", handler.ShowEmbed)
	return r, stores
}

func seedPublicThread(stores testStores, active bool) *models.Thread {
	t := &models.Thread{
		PublicID:      uuid.New(),
		ContactID:     42,
		Subject:       "Hello",
		IsActive:      active,
		LastMessageAt: time.Now(),
	}
	stores.threads.addThread(t)
	stores.messages.addMessage(models.Message{
		ThreadID: t.ID,
		FromName: "Acme",
		Content:  `<p>Welcome.</p><script>alert(1)</script>`,
		SentAt:   time.Now().Add(-time.Hour),
	})
	return t
}

func TestShowThread_Active(t *testing.T) {
	router, stores := setupPublicTestRouter()
	th := seedPublicThread(stores, true)

	req := httptest.NewRequest(http.MethodGet, "/email-thread/"+th.PublicID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Hello") {
		t.Errorf("page missing subject: %s", body)
	}
	if !strings.Contains(body, "Welcome.") {
		t.Errorf("page missing message content: %s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Errorf("stored HTML not sanitized: %s", body)
	}
}

func TestShowThread_InactiveLooksLikeMissing(t *testing.T) {
	router, stores := setupPublicTestRouter()
	th := seedPublicThread(stores, false)

	inactiveReq := httptest.NewRequest(http.MethodGet, "/email-thread/"+th.PublicID.String(), nil)
	inactiveRR := httptest.NewRecorder()
	router.ServeHTTP(inactiveRR, inactiveReq)

	missingReq := httptest.NewRequest(http.MethodGet, "/email-thread/"+uuid.NewString(), nil)
	missingRR := httptest.NewRecorder()
	router.ServeHTTP(missingRR, missingReq)

	if inactiveRR.Code != http.StatusNotFound {
		t.Errorf("expected 404 for inactive thread, got %d", inactiveRR.Code)
	}
	if missingRR.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing thread, got %d", missingRR.Code)
	}
	if inactiveRR.Body.String() != missingRR.Body.String() {
		t.Error("inactive and missing threads must be indistinguishable")
	}
}

func TestShowThread_BadID(t *testing.T) {
	router, _ := setupPublicTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/email-thread/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", rr.Code)
	}
}

func TestShowEmbed_FrameHeader(t *testing.T) {
	router, stores := setupPublicTestRouter()
	th := seedPublicThread(stores, true)

	req := httptest.NewRequest(http.MethodGet, "/email-thread/"+th.PublicID.String()+"/embed", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("expected X-Frame-Options SAMEORIGIN, got %q", got)
	}
	if !strings.Contains(rr.Body.String(), "embed:") {
		t.Errorf("expected embed template: %s", rr.Body.String())
	}
}
