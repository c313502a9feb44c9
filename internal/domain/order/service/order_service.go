package service

import (
	"context"
	"storefront/internal/domain/order/model"
	"storefront/internal/domain/order/repository"
	"storefront/internal/pkg/events"
	"storefront/pkg/errs"
	"storefront/pkg/utils"
	"time"

	"go.uber.org/zap"
)

// OrderService 账户与后台的订单查询，以及后台人工改状态
type OrderService interface {
	// GetForUser 只能查看自己的订单，他人订单按不存在处理
	GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListForUser(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, filter model.Filter, page utils.Pagination) (*utils.PageResult, error)
	// UpdateStatus 后台无条件改状态，接受状态值或法语文案
	UpdateStatus(ctx context.Context, orderID, status string) (*model.Order, error)
	Stats(ctx context.Context) ([]model.StatusStat, error)
}

type orderService struct {
	repo   repository.OrderRepository
	stats  repository.OrderStatsRepository
	events events.Publisher
	log    *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, stats repository.OrderStatsRepository, publisher events.Publisher, log *zap.Logger) OrderService {
	return &orderService{repo: repo, stats: stats, events: publisher, log: log}
}

func (s *orderService) GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error) {
	if userID == "" {
		return nil, model.ErrMissingUserID
	}
	return s.List(ctx, model.Filter{UserID: userID}, page)
}

func (s *orderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *orderService) List(ctx context.Context, filter model.Filter, page utils.Pagination) (*utils.PageResult, error) {
	offset, limit := page.GetPageOffset()
	orders, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return utils.NewPageResult(orders, total, page), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID, status string) (*model.Order, error) {
	target, ok := model.ParseStatus(status)
	if !ok {
		return nil, errs.Validation("unknown order status: " + status)
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status

	if err := s.repo.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, err
	}
	order.Status = target

	s.log.Info("order status updated by admin",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
	)

	if previous != target {
		s.events.AddTask(events.OrderEvent{
			OrderID:        order.ID,
			UserID:         order.UserID,
			PreviousStatus: string(previous),
			Status:         string(target),
			Source:         events.SourceAdmin,
			Channel:        order.Channel,
			TotalAmount:    order.TotalAmount,
			OccurredAt:     time.Now().UTC(),
		})
	}
	return order, nil
}

func (s *orderService) Stats(ctx context.Context) ([]model.StatusStat, error) {
	return s.stats.StatusBreakdown(ctx)
}
