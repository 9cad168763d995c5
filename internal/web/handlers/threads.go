package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xeonx/timeago"

	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/thread"
	"github.com/threadline-io/threadline/internal/web/middleware"
	"github.com/threadline-io/threadline/internal/web/render"
)

const threadsPerPage = 25

// ThreadHandler contains the admin HTTP handlers for browsing and
// maintaining threads.
type ThreadHandler struct {
	threads       *thread.Service
	render        *render.Renderer
	lifetimeDays  int
	secureCookies bool
}

func NewThreadHandler(threads *thread.Service, r *render.Renderer, lifetimeDays int, secureCookies bool) *ThreadHandler {
	return &ThreadHandler{
		threads:       threads,
		render:        r,
		lifetimeDays:  lifetimeDays,
		secureCookies: secureCookies,
	}
}

// threadListItem is a thread decorated for the dashboard listing.
type threadListItem struct {
	Thread       models.Thread
	ContactEmail string
	LastActivity string
}

// ShowDashboard lists active threads, most recently touched first.
func (h *ThreadHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	threads, err := h.threads.List(r.Context(), threadsPerPage, (page-1)*threadsPerPage)
	if err != nil {
		slog.Error("failed to list threads", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	total, err := h.threads.CountActive(r.Context())
	if err != nil {
		slog.Error("failed to count threads", "error", err)
		total = len(threads)
	}

	items := make([]threadListItem, 0, len(threads))
	for _, t := range threads {
		item := threadListItem{
			Thread:       t,
			LastActivity: timeago.English.Format(t.LastMessageAt),
		}
		if c, err := h.threads.Contact(r.Context(), t.ContactID); err == nil {
			item.ContactEmail = c.Email
		}
		items = append(items, item)
	}

	flash, flashType := consumeFlash(w, r, h.secureCookies)

	h.render.Render(w, r, "dashboard.html", map[string]interface{}{
		"User":        user,
		"Threads":     items,
		"Total":       total,
		"Page":        page,
		"HasPrev":     page > 1,
		"HasNext":     page*threadsPerPage < total,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
		"DefaultDays": h.lifetimeDays,
		"Flash":       flash,
		"FlashType":   flashType,
	})
}

// ShowThreadDetail renders one thread with its full message list. Unlike the
// public page, inactive threads stay visible here.
func (h *ThreadHandler) ShowThreadDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	publicID, err := uuid.Parse(chi.URLParam(r, "threadID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	t, err := h.threads.FindByPublicID(r.Context(), publicID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	msgs, err := h.threads.Messages(r.Context(), t.ID)
	if err != nil {
		slog.Error("failed to load messages", "thread_id", t.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var contactEmail string
	if c, err := h.threads.Contact(r.Context(), t.ContactID); err == nil {
		contactEmail = c.Email
	}

	h.render.Render(w, r, "thread_detail.html", map[string]interface{}{
		"User":         user,
		"Thread":       t,
		"ContactEmail": contactEmail,
		"Messages":     viewMessages(msgs),
	})
}

// HandleCleanup runs an expiration sweep with an admin-supplied day
// threshold and reports how many threads were deactivated.
func (h *ThreadHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	days := h.lifetimeDays
	if raw := r.FormValue("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			setFlashError(w, "Day threshold must be a positive number.", h.secureCookies)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		days = parsed
	}

	n, err := h.threads.DeactivateExpired(r.Context(), days, timeNow())
	if err != nil {
		slog.Error("cleanup failed", "error", err)
		setFlashError(w, "Cleanup failed.", h.secureCookies)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	setFlashSuccess(w, fmt.Sprintf("Deactivated %d threads.", n), h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
