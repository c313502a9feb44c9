package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPromoCode_Usable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		promo PromoCode
		want  error
	}{
		{"active unlimited", PromoCode{Active: true}, nil},
		{"inactive", PromoCode{Active: false}, ErrPromoInactive},
		{"not started", PromoCode{Active: true, StartTime: &future}, ErrPromoExpired},
		{"ended", PromoCode{Active: true, EndTime: &past}, ErrPromoExpired},
		{"used up", PromoCode{Active: true, Total: 10, Stock: 0}, ErrPromoUsedUp},
		{"in window with stock", PromoCode{Active: true, Total: 10, Stock: 1, StartTime: &past, EndTime: &future}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.promo.Usable(now))
		})
	}
}

func TestPromoCode_Discount(t *testing.T) {
	p := PromoCode{DiscountPercent: decimal.NewFromInt(15)}
	assert.True(t, p.Discount(decimal.NewFromInt(10000)).Equal(decimal.NewFromInt(1500)))
	// 四舍五入到整数
	assert.True(t, p.Discount(decimal.NewFromInt(333)).Equal(decimal.NewFromInt(50)))

	all := PromoCode{DiscountPercent: decimal.NewFromInt(150)}
	assert.True(t, all.Discount(decimal.NewFromInt(800)).Equal(decimal.NewFromInt(800)))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "TABASKI10", NormalizeCode("  tabaski10 "))
}
