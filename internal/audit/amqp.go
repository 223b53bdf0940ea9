// Package audit fans accepted turns out to an AMQP exchange as JSON. The
// publisher runs after commit inside the serialized event loop, so it can
// never reorder turns; when no broker is configured the engine simply runs
// without it.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shiritori/pkg/domain"
)

// TurnEvent is the published payload for one accepted turn.
type TurnEvent struct {
	Turn   domain.Turn `json:"turn"`
	Word   domain.Word `json:"word"`
	Player domain.User `json:"player"`
}

// Publisher writes turn events to a fanout exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// TurnAccepted publishes one accepted turn.
func (p *Publisher) TurnAccepted(ctx context.Context, turn domain.Turn, word domain.Word, user domain.User) error {
	body, err := json.Marshal(TurnEvent{Turn: turn, Word: word, Player: user})
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish turn event: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
