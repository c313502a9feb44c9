package repository

import (
	"context"
	"errors"
	"storefront/internal/domain/order/model"
	"storefront/pkg/errs"
	baseModel "storefront/pkg/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单存储
type OrderRepository interface {
	// Create 写入新订单，状态强制为 pending，返回生成的 ID
	Create(ctx context.Context, order *model.Order) (string, error)
	// GetByID 不存在时返回 model.ErrOrderNotFound
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// UpdateStatus 无条件写状态，仅供后台人工操作
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	// TransitionIfPending 仅当当前状态为 pending 时写入新状态，单次原子读改写
	TransitionIfPending(ctx context.Context, id string, status model.Status) (model.TransitionResult, error)
	List(ctx context.Context, filter model.Filter, offset, limit int) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (string, error) {
	if order.UserID == "" {
		return "", model.ErrMissingUserID
	}
	prepareNew(order)

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return "", errs.Storage("create order", err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrOrderNotFound
		}
		return nil, errs.Storage("get order", err)
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return errs.Storage("update order status", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// TransitionIfPending 在事务内 SELECT ... FOR UPDATE 锁住订单行
// 并发的回调与前端取消会在行锁上排队，后到者读到已变更的状态
func (r *orderRepository) TransitionIfPending(ctx context.Context, id string, status model.Status) (model.TransitionResult, error) {
	var result model.TransitionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			Where("id = ?", id).
			First(&current).Error; err != nil {
			return err
		}

		if current.Status != model.StatusPending {
			result = model.TransitionResult{Applied: false, FinalStatus: current.Status}
			return nil
		}

		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", id, model.StatusPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 行锁下不应出现，按未生效处理
			result = model.TransitionResult{Applied: false, FinalStatus: current.Status}
			return nil
		}

		result = model.TransitionResult{Applied: true, FinalStatus: status}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.TransitionResult{}, model.ErrOrderNotFound
		}
		return model.TransitionResult{}, errs.Storage("transition order", err)
	}
	return result, nil
}

func (r *orderRepository) List(ctx context.Context, filter model.Filter, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Storage("count orders", err)
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, errs.Storage("list orders", err)
	}
	return orders, total, nil
}

// prepareNew 统一新订单的服务端字段
func prepareNew(order *model.Order) {
	if order.ID == "" {
		order.ID = baseModel.NewID()
	}
	order.Status = model.StatusPending
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
}
