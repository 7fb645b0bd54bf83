package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/nats-io/nats.go"
	"github.com/radhian/payout-disbursement/entity"
)

const (
	transitionSubjectPrefix = "payout.transitions."
	reviewNoticeSubject     = "payout.reviews.authorized"
)

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events as JSON on NATS subjects.
type NATSPublisher struct {
	conn natsConn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// ConnectNATS dials url with reconnect options.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

func (p *NATSPublisher) PublishTransition(_ context.Context, event entity.TransitionEvent) error {
	return p.publish(transitionSubjectPrefix+event.Family, event)
}

func (p *NATSPublisher) PublishReviewNotice(_ context.Context, notice entity.ReviewNotice) error {
	return p.publish(reviewNoticeSubject, notice)
}

func (p *NATSPublisher) publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
