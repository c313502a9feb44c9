package strategy

import (
	"context"
	"net/http"
	"storefront/internal/domain/payment/model"
)

type PaymentStrategy interface {
	// Channel 渠道标识
	Channel() string

	// Ready 校验渠道凭证，缺失时返回 ConfigurationError
	Ready() error

	// Checkout 为已创建的订单生成支付参数，订单 ID 即渠道交易号
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)

	// ParseNotification 解析渠道异步通知
	// 缺少交易号时返回 TransactionID 为空的通知而不是错误
	ParseNotification(ctx context.Context, r *http.Request) (*model.Notification, error)
}
