package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/threadline-io/threadline/internal/inject"
	"github.com/threadline-io/threadline/internal/models"
)

// APIHandler serves the internal ingest API the host platform calls at send
// time.
type APIHandler struct {
	injector *inject.Injector
}

func NewAPIHandler(injector *inject.Injector) *APIHandler {
	return &APIHandler{injector: injector}
}

// sendEventRequest is the wire form of one outbound-send event.
type sendEventRequest struct {
	Contact struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"contact"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	FromEmail  string    `json:"from_email"`
	FromName   string    `json:"from_name"`
	Source     string    `json:"source"`
	CampaignID string    `json:"campaign_id"`
	SegmentIDs []int64   `json:"segment_ids"`
	SentAt     time.Time `json:"sent_at"`
}

type sendEventResponse struct {
	Content  string `json:"content"`
	Injected bool   `json:"injected"`
	Recorded bool   `json:"recorded"`
}

// HandleSendEvent accepts one outbound-send event and returns the content
// the caller should deliver. The response is always 200 with usable content
// once the payload parses: enrichment failures degrade to echoing the
// original body, never to failing the send.
func (h *APIHandler) HandleSendEvent(w http.ResponseWriter, r *http.Request) {
	var req sendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Error: "invalid JSON body"})
		return
	}

	res := h.injector.Process(r.Context(), &inject.SendEvent{
		Contact: models.ContactUpsertParams{
			ID:        req.Contact.ID,
			Email:     req.Contact.Email,
			FirstName: req.Contact.FirstName,
			LastName:  req.Contact.LastName,
		},
		Subject:    req.Subject,
		Content:    req.Content,
		FromEmail:  req.FromEmail,
		FromName:   req.FromName,
		Source:     req.Source,
		CampaignID: req.CampaignID,
		SegmentIDs: req.SegmentIDs,
		SentAt:     req.SentAt,
	})

	writeJSON(w, http.StatusOK, sendEventResponse{
		Content:  res.Content,
		Injected: res.Injected,
		Recorded: res.Recorded,
	})
}

// jsonResponse is the envelope for API error responses.
type jsonResponse struct {
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
