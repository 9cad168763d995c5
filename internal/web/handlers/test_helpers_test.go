package handlers

import (
	"context"
	"database/sql"
	"sort"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/thread"
	"github.com/threadline-io/threadline/internal/web/render"
)

// --- Shared mock stores ---

type mockContactStore struct {
	contacts map[int64]*models.Contact
}

func newMockContactStore() *mockContactStore {
	return &mockContactStore{contacts: make(map[int64]*models.Contact)}
}

func (m *mockContactStore) UpsertContact(_ context.Context, params models.ContactUpsertParams) (*models.Contact, error) {
	c := &models.Contact{ID: params.ID, Email: params.Email, FirstName: params.FirstName, LastName: params.LastName}
	m.contacts[params.ID] = c
	return c, nil
}

func (m *mockContactStore) GetContactByID(_ context.Context, id int64) (*models.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type mockThreadStore struct {
	threads map[int64]*models.Thread
	nextID  int64
}

func newMockThreadStore() *mockThreadStore {
	return &mockThreadStore{threads: make(map[int64]*models.Thread), nextID: 1}
}

func (m *mockThreadStore) addThread(t *models.Thread) {
	if t.ID == 0 {
		t.ID = m.nextID
		m.nextID++
	}
	m.threads[t.ID] = t
}

func (m *mockThreadStore) UpsertActiveThread(_ context.Context, contactID int64, subject, fromEmail, fromName string, now time.Time) (*models.Thread, bool, error) {
	for _, t := range m.threads {
		if t.IsActive && t.ContactID == contactID && t.Subject == subject {
			return t, false, nil
		}
	}
	t := &models.Thread{
		ID: m.nextID, PublicID: uuid.New(), ContactID: contactID, Subject: subject,
		FromEmail: fromEmail, FromName: fromName,
		FirstMessageAt: now, LastMessageAt: now, IsActive: true,
	}
	m.nextID++
	m.threads[t.ID] = t
	return t, true, nil
}

func (m *mockThreadStore) GetActiveThread(_ context.Context, contactID int64, subject string) (*models.Thread, error) {
	for _, t := range m.threads {
		if t.IsActive && t.ContactID == contactID && t.Subject == subject {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockThreadStore) GetThreadByPublicID(_ context.Context, publicID uuid.UUID) (*models.Thread, error) {
	for _, t := range m.threads {
		if t.PublicID == publicID {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockThreadStore) GetActiveThreads(_ context.Context, limit, offset int) ([]models.Thread, error) {
	var out []models.Thread
	for _, t := range m.threads {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockThreadStore) CountActiveThreads(_ context.Context) (int, error) {
	count := 0
	for _, t := range m.threads {
		if t.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *mockThreadStore) TouchThread(_ context.Context, _ int64, _ time.Time) error { return nil }

func (m *mockThreadStore) DeactivateThreadsOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	count := 0
	for _, t := range m.threads {
		if t.IsActive && t.LastMessageAt.Before(cutoff) {
			t.IsActive = false
			count++
		}
	}
	return count, nil
}

type mockMessageStore struct {
	messages map[int64][]models.Message
	nextID   int64
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{messages: make(map[int64][]models.Message), nextID: 1}
}

func (m *mockMessageStore) addMessage(msg models.Message) {
	msg.ID = m.nextID
	m.nextID++
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], msg)
}

func (m *mockMessageStore) CreateMessage(_ context.Context, params models.MessageCreateParams) (*models.Message, error) {
	msg := models.Message{
		ID: m.nextID, ThreadID: params.ThreadID, Subject: params.Subject,
		Content: params.Content, FromEmail: params.FromEmail, FromName: params.FromName,
		SentAt: params.SentAt, EmailType: params.EmailType, Metadata: params.Metadata,
	}
	m.nextID++
	m.messages[params.ThreadID] = append(m.messages[params.ThreadID], msg)
	return &msg, nil
}

func (m *mockMessageStore) GetMessagesByThreadID(_ context.Context, threadID int64) ([]models.Message, error) {
	msgs := append([]models.Message(nil), m.messages[threadID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

func (m *mockMessageStore) CountMessagesByThreadID(_ context.Context, threadID int64) (int, error) {
	return len(m.messages[threadID]), nil
}

type testStores struct {
	contacts *mockContactStore
	threads  *mockThreadStore
	messages *mockMessageStore
}

func newTestThreadService() (*thread.Service, testStores) {
	stores := testStores{
		contacts: newMockContactStore(),
		threads:  newMockThreadStore(),
		messages: newMockMessageStore(),
	}
	return thread.NewService(stores.contacts, stores.threads, stores.messages), stores
}

// testRenderer builds a renderer over stripped-down page templates so handler
// tests exercise data wiring without the real markup.
func testRenderer() *render.Renderer {
	base := `{{define "base"}}{{template "content" .}}{{end}}`
	return render.NewRenderer(fstest.MapFS{
		"base.html": {Data: []byte(base)},
		"dashboard.html": {Data: []byte(
			`{{define "content"}}{{range .Threads}}[{{.Thread.Subject}} {{.ContactEmail}}]{{end}} total={{.Total}}{{end}}`)},
		"thread_detail.html": {Data: []byte(
			`{{define "content"}}{{.Thread.Subject}}:{{range .Messages}}({{.Sender}} {{.Content}}){{end}}{{end}}`)},
		"public_thread.html": {Data: []byte(
			`{{define "content"}}{{.Thread.Subject}}:{{range .Messages}}({{.Sender}} {{.Content}}){{end}}{{end}}`)},
		"public_embed.html": {Data: []byte(
			`{{define "content"}}embed:{{range .Messages}}({{.Content}}){{end}}{{end}}`)},
		"login.html":  {Data: []byte(`{{define "content"}}login{{end}}`)},
		"signup.html": {Data: []byte(`{{define "content"}}signup{{end}}`)},
	})
}
