package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/xeonx/timeago"

	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/thread"
	"github.com/threadline-io/threadline/internal/web/render"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// sanitizePolicy cleans stored email HTML before it reaches a browser.
// Emails are untrusted content here: they may carry markup from campaign
// builders or anything the ingest API was fed.
var sanitizePolicy = bluemonday.UGCPolicy()

// viewMessage is a message prepared for HTML rendering.
type viewMessage struct {
	Sender    string
	SentAt    string
	SentAgo   string
	EmailType string
	Content   template.HTML
}

func viewMessages(msgs []models.Message) []viewMessage {
	out := make([]viewMessage, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		out = append(out, viewMessage{
			Sender:    m.SenderName(),
			SentAt:    m.SentAt.Format("Jan 2, 2006 at 3:04 PM"),
			SentAgo:   timeago.English.Format(m.SentAt),
			EmailType: string(m.EmailType),
			Content:   template.HTML(sanitizePolicy.Sanitize(m.Content)),
		})
	}
	return out
}

// PublicHandler serves the read-only conversation pages linked from emails.
type PublicHandler struct {
	threads *thread.Service
	render  *render.Renderer
}

func NewPublicHandler(threads *thread.Service, r *render.Renderer) *PublicHandler {
	return &PublicHandler{threads: threads, render: r}
}

// ShowThread renders the public page for an active thread. Inactive and
// nonexistent threads get the same 404 so the URL leaks nothing about
// expired conversations.
func (h *PublicHandler) ShowThread(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, "public_thread.html")
}

// ShowEmbed renders the embeddable variant, framed only from this origin.
func (h *PublicHandler) ShowEmbed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	h.show(w, r, "public_embed.html")
}

func (h *PublicHandler) show(w http.ResponseWriter, r *http.Request, tmpl string) {
	publicID, err := uuid.Parse(chi.URLParam(r, "threadID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	t, err := h.threads.FindByPublicID(r.Context(), publicID)
	if err != nil || !t.IsActive {
		http.NotFound(w, r)
		return
	}

	msgs, err := h.threads.Messages(r.Context(), t.ID)
	if err != nil {
		slog.Error("failed to load messages", "thread_id", t.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, r, tmpl, map[string]interface{}{
		"Thread":   t,
		"Messages": viewMessages(msgs),
	})
}
