package kafka

import (
	"context"
	"encoding/json"
	"time"

	"ms-registration/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	TopicRegistrationCreated   = "registrations.created"
	TopicRegistrationConfirmed = "registrations.confirmed"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishRegistrationCreated streams the pending-registration event.
func (p *Producer) PublishRegistrationCreated(reg models.Registration) error {
	return p.publishEvent(TopicRegistrationCreated, "registration_created", reg)
}

// PublishRegistrationConfirmed streams the confirmation event.
func (p *Producer) PublishRegistrationConfirmed(reg models.Registration) error {
	return p.publishEvent(TopicRegistrationConfirmed, "registration_confirmed", reg)
}

func (p *Producer) publishEvent(topic, eventType string, reg models.Registration) error {
	event := models.RegistrationEvent{
		Type:             eventType,
		ReferenceID:      reg.ReferenceID,
		GatewayPaymentID: reg.GatewayPaymentID,
		Status:           reg.Status,
		Amount:           reg.Amount,
		Timestamp:        time.Now().UTC(),
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Publish(topic, reg.ReferenceID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
