package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

const DefaultSubject = "xalute.outcomes"

type conn interface {
	Publish(subject string, data []byte) error
}

// OutcomeEvent is the message body published for every new outcome.
type OutcomeEvent struct {
	RecordedAt string       `json:"date"`
	Label      domain.Label `json:"prediction"`
}

// NATSPublisher announces newly persisted outcomes on a subject, one message each.
type NATSPublisher struct {
	conn    conn
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("xalute"))
	if err != nil {
		return nil, err
	}
	p := newPublisher(nc, subject)
	p.nc = nc
	return p, nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject}
}

func (p *NATSPublisher) Publish(ctx context.Context, outcomes []domain.Outcome) error {
	for _, o := range outcomes {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(OutcomeEvent{
			RecordedAt: o.RecordedAt.UTC().Format(time.RFC3339Nano),
			Label:      o.Label,
		})
		if err != nil {
			return err
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("publish %s: %w", p.subject, err)
		}
	}
	return nil
}

func (p *NATSPublisher) Name() string { return "nats:" + p.subject }

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

var _ ports.OutcomePublisher = (*NATSPublisher)(nil)
