package repository

import (
	"context"
	"errors"
	"storefront/internal/domain/promo/model"
	"storefront/pkg/errs"
	baseModel "storefront/pkg/model"
	"sync"
	"time"

	"gorm.io/gorm"
)

type PromoRepository interface {
	Create(ctx context.Context, promo *model.PromoCode) error
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	// DecreaseStock 库存为 0 时返回 model.ErrPromoUsedUp
	DecreaseStock(ctx context.Context, code string) error
	// IncreaseStock 归还一次使用，不超过 Total
	IncreaseStock(ctx context.Context, code string) error
}

type promoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) PromoRepository {
	return &promoRepository{db: db}
}

func (r *promoRepository) Create(ctx context.Context, promo *model.PromoCode) error {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Validation("promo code already exists")
		}
		return errs.Storage("create promo code", err)
	}
	return nil
}

func (r *promoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var promo model.PromoCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPromoNotFound
		}
		return nil, errs.Storage("get promo code", err)
	}
	return &promo, nil
}

// DecreaseStock 乐观锁扣减库存
func (r *promoRepository) DecreaseStock(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ? AND stock > 0", code).
		UpdateColumn("stock", gorm.Expr("stock - 1"))

	if result.Error != nil {
		return errs.Storage("decrease promo stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrPromoUsedUp
	}
	return nil
}

func (r *promoRepository) IncreaseStock(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ? AND stock < total", code).
		UpdateColumn("stock", gorm.Expr("stock + 1"))
	if result.Error != nil {
		return errs.Storage("increase promo stock", result.Error)
	}
	return nil
}

type memoryPromoRepository struct {
	mu     sync.Mutex
	promos map[string]model.PromoCode
}

func NewMemoryPromoRepository() PromoRepository {
	return &memoryPromoRepository{promos: make(map[string]model.PromoCode)}
}

func (r *memoryPromoRepository) Create(ctx context.Context, promo *model.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.promos[promo.Code]; ok {
		return errs.Validation("promo code already exists")
	}
	if promo.ID == "" {
		promo.ID = baseModel.NewID()
	}
	now := time.Now().UTC()
	promo.CreatedAt, promo.UpdatedAt = now, now
	r.promos[promo.Code] = *promo
	return nil
}

func (r *memoryPromoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok {
		return nil, model.ErrPromoNotFound
	}
	return &p, nil
}

func (r *memoryPromoRepository) DecreaseStock(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok || p.Stock <= 0 {
		return model.ErrPromoUsedUp
	}
	p.Stock--
	r.promos[code] = p
	return nil
}

func (r *memoryPromoRepository) IncreaseStock(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if ok && p.Stock < p.Total {
		p.Stock++
		r.promos[code] = p
	}
	return nil
}
