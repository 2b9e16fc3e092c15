package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for session lifecycle events.
const (
	SubjectSessionCreated = "arena.session.created"
	SubjectMatchFinished  = "arena.match.finished"
	SubjectSessionClosed  = "arena.session.closed"
)

// SessionEvent announces a session being created or closed.
type SessionEvent struct {
	SessionID    string    `json:"session_id"`
	Participants []string  `json:"participants,omitempty"`
	At           time.Time `json:"at"`
}

// MatchEvent announces a round reaching a terminal outcome.
type MatchEvent struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	WinnerID  string    `json:"winner_id,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher emits lifecycle events. Publishing is best-effort; callers log
// failures and carry on.
type Publisher interface {
	Publish(subject string, event any) error
	Close()
}

type natsPublisher struct {
	conn *nats.Conn
}

// NewNATS connects to a NATS server for event publishing.
func NewNATS(url string) (Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &natsPublisher{conn: conn}, nil
}

func (that *natsPublisher) Publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (that *natsPublisher) Close() {
	that.conn.Close()
}

type noopPublisher struct{}

// NewNoop returns a publisher that drops every event, for deployments
// without a broker.
func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(string, any) error { return nil }

func (noopPublisher) Close() {}
