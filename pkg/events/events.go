// Package events publishes lifecycle facts (property created, tenant added,
// invitation answered...) for consumers outside the core.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPropertyCreated      = "water.property.created"
	SubjectPropertyDeleted      = "water.property.deleted"
	SubjectTenantAdded          = "water.tenant.added"
	SubjectTenantRemoved        = "water.tenant.removed"
	SubjectInvitationRegistered = "water.invitation.registered"
	SubjectInvitationAnswered   = "water.invitation.answered"
	SubjectRegistrationCreated  = "water.registration.created"
	SubjectUsageRecorded        = "water.usage.recorded"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// Envelope wraps every payload so consumers can order and deduplicate.
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("water-app"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, now: time.Now}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Envelope{Subject: subject, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

type noopPublisher struct{}

func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, any) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// Recorder keeps published events in memory; tests assert against it.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, subject string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Envelope{Subject: subject, OccurredAt: time.Now().UTC(), Data: data})
	return nil
}

func (r *Recorder) Close() error {
	return nil
}

func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	subjects := make([]string, 0, len(r.Events))
	for _, event := range r.Events {
		subjects = append(subjects, event.Subject)
	}
	return subjects
}
