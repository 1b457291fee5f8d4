// Package event describes catalog changes pushed to WebSocket clients and Kafka.
package event

import (
	"context"
	"errors"
	"time"

	"go-catalog-ws/internal/model"
)

const TypeProductUpdate = "product_update"

const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionStockChanged   = "stock_changed"
	ActionProductLiked   = "product_liked"
	ActionProductUnliked = "product_unliked"
)

type ProductEvent struct {
	Type      string                 `json:"type"`
	Action    string                 `json:"action"`
	Product   *model.ProductResponse `json:"product,omitempty"`
	User      string                 `json:"user"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewProductEvent(action string, product *model.Product, user, message string) ProductEvent {
	ev := ProductEvent{
		Type:      TypeProductUpdate,
		Action:    action,
		User:      user,
		Message:   message,
		Timestamp: time.Now(),
	}
	if product != nil {
		res := product.ToResponse()
		ev.Product = &res
	}
	return ev
}

// Key groups events of one product on the same Kafka partition.
func (e ProductEvent) Key() string {
	if e.Product == nil {
		return ""
	}
	return e.Product.ID.String()
}

type Publisher interface {
	Publish(ctx context.Context, ev ProductEvent) error
}

// Fanout delivers an event to every publisher and joins their errors.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, ev ProductEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Len() int {
	return len(f.publishers)
}
