package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	subjectPlayerDiscovered = "player.discovered"
	subjectMatchIngested    = "match.ingested"
)

// Publisher is a best-effort NATS core publisher. Publish failures are
// logged and swallowed: these are fan-out notifications for an optional
// downstream consumer, never a durable log the crawler depends on.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

// New returns nil if url is empty, signaling event publishing is disabled.
func New(url, subjectPrefix string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url, nats.Name("matchcrawler"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	if subjectPrefix == "" {
		subjectPrefix = "crawler"
	}
	return &Publisher{conn: conn, prefix: subjectPrefix, log: log}, nil
}

func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

func (p *Publisher) subject(name string) string {
	return fmt.Sprintf("%s.%s", p.prefix, name)
}

func (p *Publisher) publish(_ context.Context, subject, payload string) {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Publish(p.subject(subject), []byte(payload)); err != nil {
		if p.log != nil {
			p.log.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
		}
	}
}

func (p *Publisher) PublishPlayerDiscovered(ctx context.Context, pid string) {
	p.publish(ctx, subjectPlayerDiscovered, pid)
}

func (p *Publisher) PublishMatchIngested(ctx context.Context, matchID string) {
	p.publish(ctx, subjectMatchIngested, matchID)
}
