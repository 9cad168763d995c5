// Package inject is the send-time entry point: it enriches an outbound email
// with the thread's quoted history and records the email against the thread.
package inject

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/threadline-io/threadline/internal/compose"
	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/thread"
)

// SendEvent describes one outbound email about to be delivered by the host
// platform. Content is the only field the injector ever rewrites.
type SendEvent struct {
	Contact    models.ContactUpsertParams
	Subject    string
	Content    string
	FromEmail  string
	FromName   string
	Source     string
	CampaignID string
	SegmentIDs []int64
	SentAt     time.Time
}

// Result reports what happened to an event. Content is always safe to send:
// at worst it is the original body untouched.
type Result struct {
	Content  string
	Injected bool
	Recorded bool
}

// Options are the feature flags controlling the pipeline.
type Options struct {
	Enabled                bool
	AutoThread             bool
	InjectPreviousMessages bool
	IncludeUnsubscribeLink bool
}

// unsubscribeAnchor finds the first unsubscribe link in an email body. The
// history fragment is spliced in front of it so the link keeps its
// conventional trailing position.
var unsubscribeAnchor = regexp.MustCompile(`(?i)<a[^>]*unsubscribe`)

type Injector struct {
	threads   *thread.Service
	assembler *compose.Assembler
	opts      Options
	logger    *slog.Logger
}

func NewInjector(threads *thread.Service, assembler *compose.Assembler, opts Options, logger *slog.Logger) *Injector {
	return &Injector{
		threads:   threads,
		assembler: assembler,
		opts:      opts,
		logger:    logger,
	}
}

// Process runs the single-pass pipeline for one send event: idempotency
// check, preconditions, thread resolution, history injection, then recording
// the current message. It never fails the send: every error is logged and
// degrades to returning the event's content as-is.
func (inj *Injector) Process(ctx context.Context, ev *SendEvent) Result {
	res := Result{Content: ev.Content}

	// Already processed. A second pass must leave the body byte-identical
	// and must not record a duplicate message.
	if strings.Contains(ev.Content, compose.Marker) {
		return res
	}

	if !inj.opts.Enabled {
		return res
	}
	if ev.Content == "" {
		inj.logger.Debug("skipping send event with empty content", "contact_id", ev.Contact.ID)
		return res
	}

	sentAt := ev.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	th, created, err := inj.threads.Resolve(ctx, ev.Contact, ev.Subject, ev.FromEmail, ev.FromName, inj.opts.AutoThread, sentAt)
	if err != nil {
		switch {
		case errors.Is(err, thread.ErrNoThread):
			inj.logger.Debug("no thread for event and auto-threading is off", "contact_id", ev.Contact.ID)
		case errors.Is(err, thread.ErrInvalidContact):
			inj.logger.Warn("send event carries an unresolvable contact", "contact_id", ev.Contact.ID)
		default:
			inj.logger.Error("thread resolution failed", "contact_id", ev.Contact.ID, "error", err)
		}
		return res
	}

	// Prior messages are fetched before the current one is recorded so the
	// quoted history never includes the email being sent.
	if inj.opts.InjectPreviousMessages && !created {
		prior, err := inj.threads.Messages(ctx, th.ID)
		if err != nil {
			inj.logger.Error("fetching prior messages failed", "thread_id", th.ID, "error", err)
		} else if fragment := inj.assembler.Fragment(th, prior); fragment != "" {
			res.Content = splice(ev.Content, fragment, inj.opts.IncludeUnsubscribeLink)
			res.Injected = true
		}
	}

	_, err = inj.threads.AppendMessage(ctx, models.MessageCreateParams{
		ThreadID:  th.ID,
		Subject:   ev.Subject,
		Content:   ev.Content,
		FromEmail: ev.FromEmail,
		FromName:  ev.FromName,
		SentAt:    sentAt,
		EmailType: classify(ev.Source),
		Metadata: models.MessageMetadata{
			CampaignID: ev.CampaignID,
			SegmentIDs: ev.SegmentIDs,
			Source:     ev.Source,
		},
	})
	if err != nil {
		inj.logger.Error("recording message failed", "thread_id", th.ID, "error", err)
		return res
	}
	res.Recorded = true

	return res
}

// splice inserts the fragment before the first unsubscribe link when one is
// present and expected, otherwise appends it to the body.
func splice(content, fragment string, keepUnsubscribeLast bool) string {
	if keepUnsubscribeLast {
		if loc := unsubscribeAnchor.FindStringIndex(content); loc != nil {
			return content[:loc[0]] + fragment + content[loc[0]:]
		}
	}
	return content + fragment
}

// classify derives the email type from the event's source tag.
func classify(source string) models.EmailType {
	switch {
	case strings.HasPrefix(source, "campaign"):
		return models.EmailTypeCampaign
	case source == "broadcast" || strings.HasPrefix(source, "segment") || strings.HasPrefix(source, "list"):
		return models.EmailTypeBroadcast
	default:
		return models.EmailTypeTemplate
	}
}
