package repository

import (
	"context"
	"sort"
	"storefront/internal/domain/order/model"
	"sync"
	"time"
)

// memoryOrderRepository 内存实现，用于本地开发 (database.driver=memory) 与测试
// 单把互斥锁保证 TransitionIfPending 的比较与写入不可分割
type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]model.Order
}

func NewMemoryOrderRepository() OrderRepository {
	return &memoryOrderRepository{orders: make(map[string]model.Order)}
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *model.Order) (string, error) {
	if order.UserID == "" {
		return "", model.ErrMissingUserID
	}
	prepareNew(order)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return order.ID, nil
}

func (r *memoryOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return &order, nil
}

func (r *memoryOrderRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return model.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return nil
}

func (r *memoryOrderRepository) TransitionIfPending(ctx context.Context, id string, status model.Status) (model.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return model.TransitionResult{}, model.ErrOrderNotFound
	}
	if order.Status != model.StatusPending {
		return model.TransitionResult{Applied: false, FinalStatus: order.Status}, nil
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return model.TransitionResult{Applied: true, FinalStatus: status}, nil
}

func (r *memoryOrderRepository) List(ctx context.Context, filter model.Filter, offset, limit int) ([]model.Order, int64, error) {
	r.mu.Lock()
	matched := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		matched = append(matched, o)
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Order{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
