// Package compose builds the quoted-history HTML fragment appended to
// outbound emails.
package compose

import (
	"fmt"
	"html"
	"strings"

	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/quote"
)

// Marker identifies an injected history block inside email HTML. Its
// presence means the content has already been processed.
const Marker = "email-thread-container"

const (
	maxShown   = 3
	dateFormat = "Jan 2, 2006 at 3:04 PM"
)

// Assembler renders prior thread messages into an inline-styled fragment
// that survives email clients. viewURL links to the public thread page.
type Assembler struct {
	baseURL string
}

func NewAssembler(baseURL string) *Assembler {
	return &Assembler{baseURL: strings.TrimRight(baseURL, "/")}
}

// ViewURL returns the public page for a thread.
func (a *Assembler) ViewURL(t *models.Thread) string {
	return fmt.Sprintf("%s/email-thread/%s", a.baseURL, t.PublicID)
}

// Fragment renders the quoted history for a thread. Messages arrive oldest
// first, as stored; the newest ones are shown first, at most maxShown, with
// a count of anything older. An empty history yields an empty string so the
// caller can skip injection outright.
func (a *Assembler) Fragment(t *models.Thread, prior []models.Message) string {
	if len(prior) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="` + Marker + `" style="margin-top:30px;padding-top:20px;border-top:2px solid #e0e0e0;">`)
	b.WriteString(`<p style="color:#666;font-size:12px;margin-bottom:15px;">Previous messages in this conversation:</p>`)

	shown := 0
	for i := len(prior) - 1; i >= 0 && shown < maxShown; i-- {
		msg := prior[i]
		excerpt := quote.Excerpt(msg.Content)
		if excerpt == "" {
			excerpt = "(no content)"
		}
		b.WriteString(`<div style="margin-bottom:15px;padding:10px;background-color:#f9f9f9;border-left:3px solid #ccc;">`)
		b.WriteString(`<p style="color:#888;font-size:11px;margin:0 0 5px 0;">`)
		b.WriteString(html.EscapeString(msg.SenderName()))
		b.WriteString(` &middot; `)
		b.WriteString(msg.SentAt.Format(dateFormat))
		b.WriteString(`</p>`)
		b.WriteString(`<p style="color:#555;font-size:13px;margin:0;">` + excerpt + `</p>`)
		b.WriteString(`</div>`)
		shown++
	}

	if older := len(prior) - shown; older > 0 {
		noun := "messages"
		if older == 1 {
			noun = "message"
		}
		fmt.Fprintf(&b, `<p style="color:#888;font-size:11px;">&hellip; and %d earlier %s</p>`, older, noun)
	}

	fmt.Fprintf(&b, `<p style="font-size:12px;"><a href="%s" style="color:#4e5e9e;">View full conversation online</a></p>`, html.EscapeString(a.ViewURL(t)))
	b.WriteString(`</div>`)
	return b.String()
}
