package event

import (
	"context"
	"fmt"
)

// Sender is satisfied by broker.Producer.
type Sender interface {
	Send(ctx context.Context, key string, v interface{}) error
}

type KafkaPublisher struct {
	sender Sender
}

func NewKafkaPublisher(sender Sender) *KafkaPublisher {
	return &KafkaPublisher{sender: sender}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ProductEvent) error {
	if err := p.sender.Send(ctx, ev.Key(), ev); err != nil {
		return fmt.Errorf("kafka publish %s: %w", ev.Action, err)
	}
	return nil
}
