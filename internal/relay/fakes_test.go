package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// In-memory store fakes shared by the package tests.

type memContacts struct {
	mu   sync.Mutex
	rows map[string]*store.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{rows: make(map[string]*store.Contact)}
}

func (m *memContacts) Create(ctx context.Context, c *store.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = store.GenNewID()
	}
	c.CreatedAt = time.Now()
	m.rows[c.Phone] = c
	return nil
}

func (m *memContacts) GetByPhone(ctx context.Context, phone string) (*store.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[phone]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memContacts) SetAIStatus(ctx context.Context, phone string, status store.AIStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[phone]
	if !ok {
		return store.ErrNotFound
	}
	c.AIStatus = status
	return nil
}

func (m *memContacts) List(ctx context.Context, orgID string) ([]store.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Contact
	for _, c := range m.rows {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memContacts) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

type memAdmins struct {
	rows map[string]*store.AdminPrincipal
}

func newMemAdmins() *memAdmins {
	return &memAdmins{rows: make(map[string]*store.AdminPrincipal)}
}

func (m *memAdmins) Create(ctx context.Context, a *store.AdminPrincipal) error {
	if a.ID == uuid.Nil {
		a.ID = store.GenNewID()
	}
	m.rows[a.Phone] = a
	return nil
}

func (m *memAdmins) GetByPhone(ctx context.Context, phone string) (*store.AdminPrincipal, error) {
	if a, ok := m.rows[phone]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memAdmins) List(ctx context.Context, orgID string) ([]store.AdminPrincipal, error) {
	var out []store.AdminPrincipal
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out, nil
}

type memGoals struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*store.ConversationGoal
}

func newMemGoals() *memGoals {
	return &memGoals{rows: make(map[uuid.UUID]*store.ConversationGoal)}
}

func (m *memGoals) Create(ctx context.Context, g *store.ConversationGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.ContactPhone == g.ContactPhone && existing.Status == store.GoalStatusActive {
			existing.Status = store.GoalStatusAbandoned
		}
	}
	if g.ID == uuid.Nil {
		g.ID = store.GenNewID()
	}
	g.Status = store.GoalStatusActive
	g.CreatedAt = time.Now()
	g.LastActivityAt = g.CreatedAt
	m.rows[g.ID] = g
	return nil
}

func (m *memGoals) ActiveByPhone(ctx context.Context, phone string) (*store.ConversationGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.rows {
		if g.ContactPhone == phone && g.Status == store.GoalStatusActive {
			cp := *g
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memGoals) Complete(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok || g.Status != store.GoalStatusActive {
		return false, nil
	}
	now := time.Now()
	g.Status = store.GoalStatusCompleted
	g.CompletionSummary = summary
	g.CompletedAt = &now
	return true, nil
}

func (m *memGoals) Abandon(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok || g.Status != store.GoalStatusActive {
		return false, nil
	}
	g.Status = store.GoalStatusAbandoned
	return true, nil
}

func (m *memGoals) UpdateProgress(ctx context.Context, id uuid.UUID, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok || g.Status != store.GoalStatusActive {
		return nil
	}
	g.ProgressNotes = notes
	g.LastActivityAt = time.Now()
	return nil
}

func (m *memGoals) ListByPhone(ctx context.Context, phone string) ([]store.ConversationGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ConversationGoal
	for _, g := range m.rows {
		if g.ContactPhone == phone {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memGoals) CountActive(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.rows {
		if g.Status == store.GoalStatusActive {
			n++
		}
	}
	return n, nil
}

type memLog struct {
	mu      sync.Mutex
	entries []store.LogEntry
}

func newMemLog() *memLog { return &memLog{} }

func (m *memLog) Append(ctx context.Context, e *store.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = store.GenNewID()
	}
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLog) BackfillSentiment(ctx context.Context, id uuid.UUID, sentiment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].Sentiment == "" {
			m.entries[i].Sentiment = sentiment
		}
	}
	return nil
}

func (m *memLog) Recent(ctx context.Context, phone string, limit int) ([]store.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.LogEntry
	for _, e := range m.entries {
		if e.ContactPhone == phone {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memLog) LastAgentTurn(ctx context.Context, phone, agent string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	for _, e := range m.entries {
		if e.ContactPhone == phone && e.Direction == store.DirectionOutbound && e.AgentUsed == agent {
			last = e.CreatedAt
		}
	}
	return last, nil
}

func (m *memLog) CountOutbound(ctx context.Context, phone string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.ContactPhone == phone && e.Direction == store.DirectionOutbound {
			n++
		}
	}
	return n, nil
}

func (m *memLog) byDirection(direction string) []store.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.LogEntry
	for _, e := range m.entries {
		if e.Direction == direction {
			out = append(out, e)
		}
	}
	return out
}

// recordingAlerter captures notifications raised during a turn.
type recordingAlerter struct {
	mu   sync.Mutex
	sent []store.Notification
	fail error
}

func (a *recordingAlerter) Notify(ctx context.Context, n *store.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.sent = append(a.sent, *n)
	return nil
}

func (a *recordingAlerter) byType(t string) []store.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []store.Notification
	for _, n := range a.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// scriptedProvider returns canned chat responses in order, repeating the
// last one when exhausted.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return &providers.ChatResponse{Content: "{}"}, nil
	}
	content := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return &providers.ChatResponse{Content: content}, nil
}

func (p *scriptedProvider) DefaultModel() string { return "scripted" }
func (p *scriptedProvider) Name() string         { return "scripted" }
