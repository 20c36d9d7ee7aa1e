// Package messaging publishes registration events to RabbitMQ.
package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "registration.events"

	// Wait window for Return / Confirm
	publishWait = 150 * time.Millisecond
)

// Publisher sends JSON bodies to a durable topic exchange with publisher
// confirms and the mandatory flag set.
type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{
		url:      url,
		exchange: exchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	// enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// PublishEvent publishes body under routingKey. messageID lets consumers
// drop duplicates.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if routingKey == "" {
		return errors.New("missing routingKey")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("missing messageID")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return errors.New("publisher channel not ready")
	}

	// confirms carry the channel's publish sequence number
	seq := p.ch.GetNextPublishSeqNo()

	err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    messageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	return awaitConfirm(ctx, seq, p.confirmCh, p.returnCh, publishWait)
}

// awaitConfirm waits for the confirm of delivery tag seq. Confirms for
// earlier tags are left over from publishes that timed out and are
// discarded. A Return for an unroutable message arrives before its confirm,
// so the confirm is still consumed before reporting NO_ROUTE.
func awaitConfirm(ctx context.Context, seq uint64, confirms <-chan amqp.Confirmation, returns <-chan amqp.Return, wait time.Duration) error {
	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	var returned *amqp.Return
	for {
		select {
		case ret, ok := <-returns:
			if !ok {
				returns = nil
				continue
			}
			returned = &ret
		case conf, ok := <-confirms:
			if !ok {
				return errors.New("publisher channel closed")
			}
			if conf.DeliveryTag < seq {
				continue
			}
			if !conf.Ack {
				return errors.New("publish nack")
			}
			if returned == nil {
				select {
				case ret, ok := <-returns:
					if ok {
						returned = &ret
					}
				default:
				}
			}
			if returned != nil {
				return errors.New("NO_ROUTE: " + returned.RoutingKey)
			}
			return nil
		case <-timeout.C:
			if returned != nil {
				return errors.New("NO_ROUTE: " + returned.RoutingKey)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return nil
}
