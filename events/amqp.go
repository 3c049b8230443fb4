package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQPPublisher keeps one connection and redials lazily after it drops.
type AMQPPublisher struct {
	url string
	log *logrus.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewAMQPPublisher(url string, log *logrus.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

func (p *AMQPPublisher) PublishExperienceSubmitted(ctx context.Context, event ExperienceSubmitted) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ModerationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", ModerationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// StartModerationConsumer logs every pending experience until ctx is done,
// reconnecting with backoff when the broker goes away.
func StartModerationConsumer(ctx context.Context, url string, log *logrus.Logger) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("moderation-consumer: dial failed, retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consume(ctx, conn, log); err != nil {
			log.WithError(err).Warn("moderation-consumer: consume loop ended, reconnecting")
		}
		_ = conn.Close()
	}
}

func consume(ctx context.Context, conn *amqp.Connection, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ModerationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ModerationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := handleDelivery(d.Body, log); err != nil {
				log.WithError(err).Error("moderation-consumer: dropping malformed message")
				_ = d.Reject(false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleDelivery(body []byte, log *logrus.Logger) error {
	var ev ExperienceSubmitted
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	if ev.ExperienciaID == 0 {
		return fmt.Errorf("missing experiencia_id")
	}
	fields := logrus.Fields{
		"experiencia_id": ev.ExperienciaID,
		"url_foto":       ev.URLFoto,
		"creado_en":      ev.CreadoEn,
	}
	if ev.LugarID != nil {
		fields["lugar_id"] = *ev.LugarID
	}
	log.WithFields(fields).Info("experience awaiting moderation")
	return nil
}
