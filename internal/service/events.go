package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Workflow event types published to the message bus.
const (
	EventAssignmentAssigned = "assignment.assigned"
	EventAssignmentReviewed = "assignment.reviewed"
)

// WorkflowEvent describes a lifecycle change other systems may react to
// (notifications, activity feeds). Publishing is best-effort.
type WorkflowEvent struct {
	Type         string    `json:"type"`
	TaskID       uint      `json:"task_id"`
	ClassID      uint      `json:"class_id"`
	StudentID    uint      `json:"student_id"`
	AssignmentID uint      `json:"assignment_id"`
	RewardScore  int       `json:"reward_score,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher emits workflow events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event WorkflowEvent) error
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventPublisher publishes workflow events to NATS subjects of the
// form "<base>.<event type>".
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	if subjectBase == "" {
		subjectBase = "edutask"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subjectBase,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(_ context.Context, event WorkflowEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode workflow event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subject, event.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish workflow event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Uint("assignment_id", event.AssignmentID).Msg("workflow event published")

	return nil
}

type nopEventPublisher struct{}

// NewNopEventPublisher returns a publisher that drops all events. Used when
// no message bus is configured.
func NewNopEventPublisher() EventPublisher {
	return nopEventPublisher{}
}

func (nopEventPublisher) Publish(context.Context, WorkflowEvent) error { return nil }
