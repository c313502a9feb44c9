package service

import (
	"context"
	"storefront/internal/domain/promo/model"
	"storefront/internal/domain/promo/repository"
	"storefront/pkg/errs"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PromoService interface {
	CreatePromo(ctx context.Context, input CreatePromoInput) (*model.PromoCode, error)
	// Resolve 校验优惠码并针对小计计算折扣，不扣减次数
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*model.Quote, error)
	// Redeem 占用一次使用次数
	Redeem(ctx context.Context, code string) error
	// Release 归还 Redeem 占用的次数
	Release(ctx context.Context, code string)
}

type CreatePromoInput struct {
	Code            string
	DiscountPercent decimal.Decimal
	Total           int
	StartTime       *time.Time
	EndTime         *time.Time
}

type promoService struct {
	repo repository.PromoRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewPromoService(repo repository.PromoRepository, log *zap.Logger) PromoService {
	return &promoService{repo: repo, log: log, now: time.Now}
}

func (s *promoService) CreatePromo(ctx context.Context, input CreatePromoInput) (*model.PromoCode, error) {
	code := model.NormalizeCode(input.Code)
	if code == "" {
		return nil, errs.Validation("promo code is required")
	}
	if !input.DiscountPercent.IsPositive() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errs.Validation("discount percent must be in (0, 100]")
	}
	if input.Total < 0 {
		return nil, errs.Validation("total cannot be negative")
	}
	if input.StartTime != nil && input.EndTime != nil && input.EndTime.Before(*input.StartTime) {
		return nil, errs.Validation("end time must be after start time")
	}

	promo := &model.PromoCode{
		Code:            code,
		DiscountPercent: input.DiscountPercent,
		Total:           input.Total,
		Stock:           input.Total,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Active:          true,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promoService) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*model.Quote, error) {
	promo, err := s.repo.GetByCode(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if err := promo.Usable(s.now()); err != nil {
		return nil, err
	}
	return &model.Quote{
		Code:            promo.Code,
		DiscountPercent: promo.DiscountPercent,
		DiscountAmount:  promo.Discount(subtotal),
	}, nil
}

func (s *promoService) Redeem(ctx context.Context, code string) error {
	code = model.NormalizeCode(code)
	promo, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if !promo.Limited() {
		return nil
	}
	return s.repo.DecreaseStock(ctx, code)
}

func (s *promoService) Release(ctx context.Context, code string) {
	code = model.NormalizeCode(code)
	promo, err := s.repo.GetByCode(ctx, code)
	if err == nil && !promo.Limited() {
		return
	}
	if err == nil {
		err = s.repo.IncreaseStock(ctx, code)
	}
	if err != nil {
		s.log.Warn("release promo code failed", zap.String("code", code), zap.Error(err))
	}
}
