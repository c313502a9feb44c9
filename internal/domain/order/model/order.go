package model

import (
	"storefront/pkg/errs"
	baseModel "storefront/pkg/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order 一次结账尝试及其履约状态
// Items / ShippingDetails / TotalAmount / PromoCode 创建后只读
type Order struct {
	baseModel.BaseModel
	UserID          string                              `gorm:"type:varchar(128);index;not null" json:"userId"`
	Items           datatypes.JSONSlice[LineItem]       `gorm:"type:jsonb;not null" json:"items"`
	ShippingDetails datatypes.JSONType[ShippingDetails] `gorm:"type:jsonb;not null" json:"shippingDetails"`
	TotalAmount     decimal.Decimal                     `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Status          Status                              `gorm:"type:varchar(16);index;not null" json:"status"`
	PromoCode       datatypes.JSONType[*PromoSnapshot]  `gorm:"type:jsonb;not null" json:"promoCode"` // 无优惠时为 JSON null
	Channel         string                              `gorm:"type:varchar(16);not null" json:"channel"`
}

func (Order) TableName() string {
	return "orders"
}

// LineItem 订单行，价格为下单时购物车快照
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ShippingDetails 收货信息
type ShippingDetails struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone"`
	Note       string `json:"note,omitempty"`
}

// PromoSnapshot 下单时冻结的优惠信息
type PromoSnapshot struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// TransitionResult 条件状态迁移结果
// Applied=false 时 FinalStatus 是订单当前（未改变）的状态
type TransitionResult struct {
	Applied     bool   `json:"applied"`
	FinalStatus Status `json:"finalStatus"`
}

// Filter 后台订单列表筛选
type Filter struct {
	Status Status
	UserID string
}

// StatusStat 按状态汇总
type StatusStat struct {
	Status  Status          `db:"status" json:"status"`
	Count   int64           `db:"order_count" json:"count"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

var (
	ErrOrderNotFound = errs.NotFound("order not found")
	ErrMissingUserID = errs.Validation("userId is required")
	ErrNoItems       = errs.Validation("order has no items")
)

// Subtotal 商品小计
func (o *Order) Subtotal() decimal.Decimal {
	return Subtotal(o.Items)
}

// Subtotal 计算订单行合计
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Promo 优惠信息，无则返回 nil
func (o *Order) Promo() *PromoSnapshot {
	return o.PromoCode.Data()
}

// Shipping 收货信息
func (o *Order) Shipping() ShippingDetails {
	return o.ShippingDetails.Data()
}
