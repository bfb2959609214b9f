package audit

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"stayloom/models"
)

// Publisher fans audit records out to a RabbitMQ exchange for external
// reconciliation consumers.
type Publisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
}

// NewPublisher connects to RabbitMQ and declares the audit exchange.
func NewPublisher(rabbitURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{connection: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends one audit record as JSON.
func (p *Publisher) Publish(record models.IntentAudit) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	return p.channel.Publish(
		p.exchange,
		"",    // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.connection != nil {
		p.connection.Close()
	}
}
