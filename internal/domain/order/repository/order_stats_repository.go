package repository

import (
	"context"
	"storefront/internal/domain/order/model"
	"storefront/pkg/errs"

	"github.com/jmoiron/sqlx"
)

// OrderStatsRepository 后台报表查询，直接走 SQL
type OrderStatsRepository interface {
	StatusBreakdown(ctx context.Context) ([]model.StatusStat, error)
}

type orderStatsRepository struct {
	db *sqlx.DB
}

func NewOrderStatsRepository(db *sqlx.DB) OrderStatsRepository {
	return &orderStatsRepository{db: db}
}

const statusBreakdownSQL = `
	SELECT status, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS revenue
	FROM orders
	WHERE deleted_at IS NULL
	GROUP BY status
	ORDER BY status`

func (r *orderStatsRepository) StatusBreakdown(ctx context.Context) ([]model.StatusStat, error) {
	var stats []model.StatusStat
	if err := r.db.SelectContext(ctx, &stats, statusBreakdownSQL); err != nil {
		return nil, errs.Storage("order status breakdown", err)
	}
	return stats, nil
}

// memoryOrderStats 内存模式下基于 List 汇总
type memoryOrderStats struct {
	orders OrderRepository
}

func NewMemoryOrderStatsRepository(orders OrderRepository) OrderStatsRepository {
	return &memoryOrderStats{orders: orders}
}

func (m *memoryOrderStats) StatusBreakdown(ctx context.Context) ([]model.StatusStat, error) {
	all, _, err := m.orders.List(ctx, model.Filter{}, 0, int(^uint(0)>>1))
	if err != nil {
		return nil, err
	}

	byStatus := make(map[model.Status]*model.StatusStat)
	order := make([]model.Status, 0)
	for _, o := range all {
		st, ok := byStatus[o.Status]
		if !ok {
			st = &model.StatusStat{Status: o.Status}
			byStatus[o.Status] = st
			order = append(order, o.Status)
		}
		st.Count++
		st.Revenue = st.Revenue.Add(o.TotalAmount)
	}

	stats := make([]model.StatusStat, 0, len(order))
	for _, s := range order {
		stats = append(stats, *byStatus[s])
	}
	return stats, nil
}
