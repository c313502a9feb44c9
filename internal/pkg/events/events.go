package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// 事件来源
const (
	SourceWebhook = "webhook"
	SourceClient  = "client"
	SourceAdmin   = "admin"
)

// OrderEvent 订单状态变更事件
type OrderEvent struct {
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	PreviousStatus string          `json:"previousStatus"`
	Status         string          `json:"status"`
	Source         string          `json:"source"`
	Channel        string          `json:"channel,omitempty"`
	ProviderStatus string          `json:"providerStatus,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// Sink 事件投递目标
type Sink interface {
	Name() string
	Publish(ctx context.Context, event OrderEvent) error
}

// Retargetable 支持只向部分目标重投
type Retargetable interface {
	Sink
	PublishTo(ctx context.Context, event OrderEvent, names []string) error
}

// DeliveryError 部分目标投递失败，Failed 为失败目标的名称
type DeliveryError struct {
	Failed []string
	Err    error
}

func (e *DeliveryError) Error() string { return e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Fanout 依次投递到所有目标，失败时返回 *DeliveryError
type Fanout []Sink

func (f Fanout) Name() string { return "fanout" }

func (f Fanout) Publish(ctx context.Context, event OrderEvent) error {
	return f.publish(ctx, event, nil)
}

// PublishTo 只投递给指定名称的目标，已成功的目标不会重复收到事件
func (f Fanout) PublishTo(ctx context.Context, event OrderEvent, names []string) error {
	only := make(map[string]bool, len(names))
	for _, n := range names {
		only[n] = true
	}
	return f.publish(ctx, event, only)
}

func (f Fanout) publish(ctx context.Context, event OrderEvent, only map[string]bool) error {
	var failed []string
	var errList []error
	for _, s := range f {
		if only != nil && !only[s.Name()] {
			continue
		}
		if err := s.Publish(ctx, event); err != nil {
			failed = append(failed, s.Name())
			errList = append(errList, errors.Join(errors.New(s.Name()), err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &DeliveryError{Failed: failed, Err: errors.Join(errList...)}
}

// Discard 丢弃所有事件
type Discard struct{}

func (Discard) Name() string { return "discard" }

func (Discard) Publish(context.Context, OrderEvent) error { return nil }

// Publisher 异步投递入口，由 worker.WorkerPool 实现
type Publisher interface {
	AddTask(event OrderEvent) bool
}
