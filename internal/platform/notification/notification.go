// Package notification provides template-rendered clinic notifications with
// an in-memory outbox and bounded retry.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier is the interface domain services depend on. Delivery failures are
// the caller's to log; notifications are best-effort side effects.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string) error
}

// Notification represents a single outbound notification.
type Notification struct {
	ID         string     `json:"id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	TemplateID string     `json:"template_id,omitempty"`
	Status     string     `json:"status"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Sender is the delivery transport (email gateway in production).
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in clinic
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "appointment-booked",
			Name:    "Appointment Booked",
			Subject: "Appointment Confirmed for {{patient_name}}",
			Body:    "Dear {{patient_name}}, your appointment on {{date}} from {{start}} to {{end}} has been booked.",
		},
		{
			ID:      "schedule-change-requested",
			Name:    "Schedule Change Requested",
			Subject: "Schedule Change Requires Your Approval",
			Body:    "Dr. {{doctor_name}}, a {{change_type}} schedule change for {{date}} is awaiting your approval.",
		},
		{
			ID:      "schedule-change-approved",
			Name:    "Schedule Change Approved",
			Subject: "Your Schedule Change Was Approved",
			Body:    "Dr. {{doctor_name}}, your {{change_type}} schedule change for {{date}} has been approved and applied.",
		},
		{
			ID:      "schedule-change-rejected",
			Name:    "Schedule Change Rejected",
			Subject: "Your Schedule Change Was Rejected",
			Body:    "Dr. {{doctor_name}}, your {{change_type}} schedule change for {{date}} was rejected: {{note}}",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Manager renders, delivers with bounded retry, and records every
// notification in an in-memory outbox.
type Manager struct {
	sender      Sender
	templates   *TemplateEngine
	maxAttempts int

	mu     sync.RWMutex
	outbox map[string]*Notification
}

// NewManager constructs a Manager. maxAttempts below 1 is treated as 1.
func NewManager(sender Sender, tpl *TemplateEngine, maxAttempts int) *Manager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Manager{
		sender:      sender,
		templates:   tpl,
		maxAttempts: maxAttempts,
		outbox:      make(map[string]*Notification),
	}
}

// Notify renders the template and delivers it, retrying transport failures up
// to the configured attempt count.
func (m *Manager) Notify(ctx context.Context, templateID, recipient string, data map[string]string) error {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:         uuid.NewString(),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Status:     "pending",
		CreatedAt:  time.Now().UTC(),
	}

	var sendErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		n.Attempts = attempt
		sendErr = m.sender.Send(ctx, recipient, subject, body)
		if sendErr == nil {
			break
		}
		if ctx.Err() != nil {
			sendErr = ctx.Err()
			break
		}
	}

	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.outbox[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

// Outbox returns a copy of all recorded notifications.
func (m *Manager) Outbox() []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Notification, 0, len(m.outbox))
	for _, n := range m.outbox {
		cp := *n
		out = append(out, &cp)
	}
	return out
}

// SendCall records a single call to a MockSender.
type SendCall struct {
	To      string
	Subject string
	Body    string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu        sync.Mutex
	calls     []SendCall
	FailTimes int
}

// Send records the call and fails the first FailTimes invocations.
func (m *MockSender) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SendCall{To: to, Subject: subject, Body: body})
	if m.FailTimes > 0 {
		m.FailTimes--
		return errors.New("delivery failed")
	}
	return nil
}

// Calls returns a copy of recorded send calls.
func (m *MockSender) Calls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LogSender writes notifications to the log instead of delivering them.
// Used until a real mail transport is wired.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("notification dispatched")
	return nil
}
