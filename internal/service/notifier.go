package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Settlement event types published on request state changes.
const (
	EventRequestCreated  = "mint_request.created"
	EventRequestSigned   = "mint_request.signed"
	EventRequestRejected = "mint_request.rejected"
)

// SettlementEvent notifies external consumers (UI refresh, submitters)
// of a request state change. Delivery is best-effort: correctness never
// depends on an event arriving.
type SettlementEvent struct {
	Type      string    `json:"type"`
	RequestID uint      `json:"request_id"`
	OwnerID   string    `json:"owner_id"`
	Status    string    `json:"status"`
	SentAt    time.Time `json:"sent_at"`
}

// EventPublisher pushes settlement events to interested collaborators.
type EventPublisher interface {
	Publish(event SettlementEvent)
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes settlement events on a NATS subject. A nil
// connection yields a no-op publisher, so callers never need to branch.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if conn == nil || subject == "" {
		return noopPublisher{}
	}

	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "settlement_events").Logger(),
	}
}

func (p *natsPublisher) Publish(event SettlementEvent) {
	event.SentAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode settlement event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish settlement event")
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(SettlementEvent) {}
