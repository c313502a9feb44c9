package strategy

import (
	"context"
	"fmt"
	"net/http"
	"storefront/internal/domain/payment/model"
	"storefront/internal/pkg/config"
	"storefront/pkg/errs"

	"github.com/smartwalle/alipay/v3"
)

type AlipayStrategy struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayStrategy(cfg config.AlipayConfig) (*AlipayStrategy, error) {
	if cfg.AppID == "" {
		return nil, errs.Configuration("alipay config missing")
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 加载支付宝公钥 (用于验证签名)
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayStrategy{
		client: client,
		config: cfg,
	}, nil
}

func (s *AlipayStrategy) Channel() string {
	return model.ChannelAlipay
}

func (s *AlipayStrategy) Ready() error {
	if s.config.NotifyURL == "" {
		return errs.Configuration("alipay notify_url missing")
	}
	return nil
}

// Checkout App 支付，返回签名后的参数串
func (s *AlipayStrategy) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	p := alipay.TradeAppPay{}
	p.NotifyURL = s.config.NotifyURL
	p.Subject = req.Description
	p.OutTradeNo = req.OrderID
	p.TotalAmount = req.Amount.StringFixed(2)
	p.ProductCode = "QUICK_MSECURITY_PAY" // App支付产品码

	result, err := s.client.TradeAppPay(p)
	if err != nil {
		return nil, errs.PaymentProvider("alipay prepay failed", err)
	}
	return &model.CheckoutSession{Channel: model.ChannelAlipay, PayParam: result}, nil
}

// ParseNotification 验签后按交易状态归类
func (s *AlipayStrategy) ParseNotification(ctx context.Context, r *http.Request) (*model.Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse alipay notification: %w", err)
	}

	noti, err := s.client.DecodeNotification(r.PostForm)
	if err != nil {
		return nil, fmt.Errorf("verify alipay notification: %w", err)
	}

	n := &model.Notification{
		Channel:        model.ChannelAlipay,
		TransactionID:  noti.OutTradeNo,
		ProviderStatus: string(noti.TradeStatus),
	}
	switch noti.TradeStatus {
	case alipay.TradeStatusSuccess, alipay.TradeStatusFinished:
		n.Result = model.ResultAccepted
	case alipay.TradeStatusWaitBuyerPay:
		n.Result = model.ResultInProgress
	default:
		n.Result = model.ResultRejected
	}
	return n, nil
}

var _ PaymentStrategy = (*AlipayStrategy)(nil)
