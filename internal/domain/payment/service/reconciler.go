package service

import (
	"context"
	"errors"
	orderModel "storefront/internal/domain/order/model"
	orderRepo "storefront/internal/domain/order/repository"
	"storefront/internal/domain/payment/model"
	"storefront/internal/pkg/events"
	"storefront/internal/pkg/idempotency"
	"storefront/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

// 回调应答文案
const (
	MsgOrderUpdated         = "Order updated"
	MsgOrderAlreadyHandled  = "Order already processed"
	MsgOrderNotFound        = "Order not found"
	MsgMissingTransactionID = "Missing transaction id"
	MsgPaymentStillPending  = "Payment still pending"
)

// Reconciler 把渠道通知落到订单状态上
// 重复通知、未知订单、缺少 ID 都返回 Outcome 而不是 error，只有存储失败才返回 error
type Reconciler struct {
	orders  orderRepo.OrderRepository
	markers idempotency.Store
	events  events.Publisher
	metrics *metrics.MetricsCollector
	log     *zap.Logger
}

func NewReconciler(orders orderRepo.OrderRepository, markers idempotency.Store, publisher events.Publisher, collector *metrics.MetricsCollector, log *zap.Logger) *Reconciler {
	if markers == nil {
		markers = idempotency.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		orders:  orders,
		markers: markers,
		events:  publisher,
		metrics: collector,
		log:     log,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, n *model.Notification) (*model.Outcome, error) {
	log := r.log.With(
		zap.String("channel", n.Channel),
		zap.String("order_id", n.TransactionID),
		zap.String("provider_status", n.ProviderStatus),
	)

	outcome, err := r.reconcile(ctx, n, log)
	if err != nil {
		log.Error("notification reconcile failed", zap.Error(err))
		return nil, err
	}

	r.metrics.RecordNotification(n.Channel, string(outcome.Action))
	log.Info("notification reconciled",
		zap.String("action", string(outcome.Action)),
		zap.String("final_status", string(outcome.FinalStatus)),
		zap.String("reconciled_status", string(outcome.ReconciledStatus)),
	)
	return outcome, nil
}

func (r *Reconciler) reconcile(ctx context.Context, n *model.Notification, log *zap.Logger) (*model.Outcome, error) {
	if n.TransactionID == "" {
		return &model.Outcome{Action: model.ActionMissingTransactionID, Message: MsgMissingTransactionID}, nil
	}

	key := idempotency.Key(n.Channel, n.TransactionID)
	if prev, ok, err := r.markers.Lookup(ctx, key); err != nil {
		log.Warn("idempotency lookup failed, falling back to order status", zap.Error(err))
	} else if ok {
		// 不回读订单，FinalStatus 留空
		return &model.Outcome{
			Action:           model.ActionAlreadyProcessed,
			Message:          MsgOrderAlreadyHandled,
			OrderID:          n.TransactionID,
			ReconciledStatus: orderModel.Status(prev),
		}, nil
	}

	order, err := r.orders.GetByID(ctx, n.TransactionID)
	if err != nil {
		if errors.Is(err, orderModel.ErrOrderNotFound) {
			return &model.Outcome{Action: model.ActionOrderNotFound, Message: MsgOrderNotFound, OrderID: n.TransactionID}, nil
		}
		return nil, err
	}

	if order.Status != orderModel.StatusPending {
		r.remember(ctx, key, order.Status, log)
		return r.alreadyProcessed(order.ID, order.Status), nil
	}

	if n.Result == model.ResultInProgress {
		return &model.Outcome{
			Action:      model.ActionStillPending,
			Message:     MsgPaymentStillPending,
			OrderID:     order.ID,
			FinalStatus: order.Status,
		}, nil
	}

	target := n.TargetStatus()
	res, err := r.orders.TransitionIfPending(ctx, order.ID, target)
	if err != nil {
		if errors.Is(err, orderModel.ErrOrderNotFound) {
			return &model.Outcome{Action: model.ActionOrderNotFound, Message: MsgOrderNotFound, OrderID: n.TransactionID}, nil
		}
		return nil, err
	}
	r.metrics.RecordTransition(events.SourceWebhook, string(target), res.Applied)
	r.remember(ctx, key, res.FinalStatus, log)

	if !res.Applied {
		// 与前端取消或另一条回调竞争失败
		outcome := r.alreadyProcessed(order.ID, res.FinalStatus)
		outcome.ReconciledStatus = res.FinalStatus
		return outcome, nil
	}

	r.events.AddTask(events.OrderEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		PreviousStatus: string(orderModel.StatusPending),
		Status:         string(res.FinalStatus),
		Source:         events.SourceWebhook,
		Channel:        n.Channel,
		ProviderStatus: n.ProviderStatus,
		TotalAmount:    order.TotalAmount,
		OccurredAt:     time.Now().UTC(),
	})

	return &model.Outcome{
		Action:           model.ActionApplied,
		Message:          MsgOrderUpdated,
		OrderID:          order.ID,
		FinalStatus:      res.FinalStatus,
		ReconciledStatus: res.FinalStatus,
	}, nil
}

func (r *Reconciler) alreadyProcessed(orderID string, status orderModel.Status) *model.Outcome {
	return &model.Outcome{
		Action:      model.ActionAlreadyProcessed,
		Message:     MsgOrderAlreadyHandled,
		OrderID:     orderID,
		FinalStatus: status,
	}
}

func (r *Reconciler) remember(ctx context.Context, key string, status orderModel.Status, log *zap.Logger) {
	if err := r.markers.Remember(ctx, key, string(status)); err != nil {
		log.Warn("idempotency marker not saved", zap.Error(err))
	}
}
