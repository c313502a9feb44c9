package service

import (
	"context"
	"storefront/internal/domain/promo/model"
	"storefront/internal/domain/promo/repository"
	"storefront/pkg/errs"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPromoRepository is a mock of PromoRepository
type MockPromoRepository struct {
	mock.Mock
}

func (m *MockPromoRepository) Create(ctx context.Context, promo *model.PromoCode) error {
	args := m.Called(ctx, promo)
	return args.Error(0)
}

func (m *MockPromoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PromoCode), args.Error(1)
}

func (m *MockPromoRepository) DecreaseStock(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockPromoRepository) IncreaseStock(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func TestCreatePromo(t *testing.T) {
	svc := NewPromoService(repository.NewMemoryPromoRepository(), zap.NewNop())
	ctx := context.Background()

	promo, err := svc.CreatePromo(ctx, CreatePromoInput{Code: " soldes20 ", DiscountPercent: decimal.NewFromInt(20), Total: 5})
	require.NoError(t, err)
	assert.Equal(t, "SOLDES20", promo.Code)
	assert.Equal(t, 5, promo.Stock)
	assert.True(t, promo.Active)

	_, err = svc.CreatePromo(ctx, CreatePromoInput{Code: "X", DiscountPercent: decimal.NewFromInt(0)})
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.CreatePromo(ctx, CreatePromoInput{Code: "Y", DiscountPercent: decimal.NewFromInt(5), StartTime: &start, EndTime: &end})
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestResolve(t *testing.T) {
	repo := new(MockPromoRepository)
	svc := NewPromoService(repo, zap.NewNop())
	ctx := context.Background()

	repo.On("GetByCode", ctx, "TABASKI10").Return(&model.PromoCode{Code: "TABASKI10", DiscountPercent: decimal.NewFromInt(10), Active: true}, nil)
	repo.On("GetByCode", ctx, "OLD").Return(&model.PromoCode{Code: "OLD", DiscountPercent: decimal.NewFromInt(10), Active: false}, nil)
	repo.On("GetByCode", ctx, "NOPE").Return(nil, model.ErrPromoNotFound)

	quote, err := svc.Resolve(ctx, "tabaski10", decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(1000)))

	_, err = svc.Resolve(ctx, "old", decimal.NewFromInt(10000))
	assert.ErrorIs(t, err, model.ErrPromoInactive)

	_, err = svc.Resolve(ctx, "nope", decimal.NewFromInt(10000))
	assert.ErrorIs(t, err, model.ErrPromoNotFound)
}

func TestRedeemAndRelease(t *testing.T) {
	repo := new(MockPromoRepository)
	svc := NewPromoService(repo, zap.NewNop())
	ctx := context.Background()

	repo.On("GetByCode", ctx, "UNLIMITED").Return(&model.PromoCode{Code: "UNLIMITED", Active: true}, nil)
	repo.On("GetByCode", ctx, "LIMITED").Return(&model.PromoCode{Code: "LIMITED", Total: 3, Stock: 1, Active: true}, nil)
	repo.On("DecreaseStock", ctx, "LIMITED").Return(nil).Once()
	repo.On("IncreaseStock", ctx, "LIMITED").Return(nil).Once()

	require.NoError(t, svc.Redeem(ctx, "unlimited"))
	require.NoError(t, svc.Redeem(ctx, "limited"))
	svc.Release(ctx, "unlimited")
	svc.Release(ctx, "limited")

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "DecreaseStock", ctx, "UNLIMITED")
}
