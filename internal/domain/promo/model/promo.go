package model

import (
	"storefront/pkg/errs"
	baseModel "storefront/pkg/model"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode 优惠码，按百分比折扣商品小计
type PromoCode struct {
	baseModel.BaseModel
	Code            string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discountPercent"`
	Total           int             `gorm:"not null" json:"total"` // 0 表示不限量
	Stock           int             `gorm:"not null" json:"stock"` // 剩余可用次数
	StartTime       *time.Time      `json:"startTime,omitempty"`
	EndTime         *time.Time      `json:"endTime,omitempty"`
	Active          bool            `gorm:"not null" json:"active"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// Quote 针对某个小计计算出的折扣
type Quote struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
}

var (
	ErrPromoNotFound = errs.NotFound("promo code not found")
	ErrPromoInactive = errs.Validation("promo code is not active")
	ErrPromoExpired  = errs.Validation("promo code is expired or not yet valid")
	ErrPromoUsedUp   = errs.Validation("promo code has been fully used")
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode 优惠码不区分大小写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Limited 是否限量
func (p *PromoCode) Limited() bool {
	return p.Total > 0
}

// Usable 校验启用状态、有效期与库存
func (p *PromoCode) Usable(now time.Time) error {
	if !p.Active {
		return ErrPromoInactive
	}
	if p.StartTime != nil && now.Before(*p.StartTime) {
		return ErrPromoExpired
	}
	if p.EndTime != nil && now.After(*p.EndTime) {
		return ErrPromoExpired
	}
	if p.Limited() && p.Stock <= 0 {
		return ErrPromoUsedUp
	}
	return nil
}

// Discount 折扣金额取整到货币单位，不超过小计
func (p *PromoCode) Discount(subtotal decimal.Decimal) decimal.Decimal {
	d := subtotal.Mul(p.DiscountPercent).Div(hundred).Round(0)
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
