package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventoMedicion is the billing event emitted after a reading is persisted.
type EventoMedicion struct {
	MedicionID int64      `json:"medicion_id"`
	NroCuenta  int        `json:"nro_cuenta"`
	Ruta       int        `json:"ruta"`
	Medicion   float64    `json:"medicion"`
	Fecha      *time.Time `json:"fecha"`
	EstadoID   int64      `json:"estado_id"`
	CreadaEn   time.Time  `json:"creada_en"`
}

// Publisher emits billing events to a topic exchange.
type Publisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher creates a publisher bound to the billing exchange. It
// returns nil when the connection is nil, which disables the feed.
func NewPublisher(conn *Connection, logger *zap.Logger, exchange, routingKey string) (*Publisher, error) {
	if conn == nil {
		return nil, nil
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publisher channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.Info("billing publisher ready",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey))

	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublicarMedicionAceptada publishes one event per accepted reading.
// A nil receiver is a no-op so callers never have to branch on whether
// the feed is configured.
func (p *Publisher) PublicarMedicionAceptada(ctx context.Context, evento EventoMedicion) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(evento)
	if err != nil {
		return fmt.Errorf("failed to marshal billing event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish billing event: %w", err)
	}

	p.logger.Debug("billing event published",
		zap.Int64("medicion_id", evento.MedicionID),
		zap.Int("nro_cuenta", evento.NroCuenta))
	return nil
}
