package strategy

import (
	"context"
	"fmt"
	"net/http"
	"storefront/internal/domain/payment/model"
	"storefront/internal/pkg/config"
	"storefront/pkg/errs"

	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/app"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy(ctx context.Context, cfg config.WechatPayConfig) (*WechatStrategy, error) {
	if cfg.MchID == "" {
		return nil, errs.Configuration("wechat pay config missing")
	}

	// 1. 加载商户私钥
	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	// 2. 初始化 Client，同时注册平台证书自动下载
	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	}
	client, err := core.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// 3. 用平台证书验签
	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{
		client:  client,
		config:  cfg,
		handler: handler,
	}, nil
}

func (s *WechatStrategy) Channel() string {
	return model.ChannelWechat
}

func (s *WechatStrategy) Ready() error {
	if s.config.AppID == "" || s.config.NotifyURL == "" {
		return errs.Configuration("wechat pay app_id or notify_url missing")
	}
	return nil
}

func (s *WechatStrategy) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	// 金额单位为分
	amountFen := req.Amount.Shift(2).Round(0).IntPart()

	prepay := app.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(req.Description),
		OutTradeNo:  core.String(req.OrderID),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &app.Amount{
			Total: core.Int64(amountFen),
		},
	}

	svc := app.AppApiService{Client: s.client}
	resp, _, err := svc.Prepay(ctx, prepay)
	if err != nil {
		return nil, errs.PaymentProvider("wechat prepay failed", err)
	}
	return &model.CheckoutSession{Channel: model.ChannelWechat, PayParam: *resp.PrepayId}, nil
}

func (s *WechatStrategy) ParseNotification(ctx context.Context, r *http.Request) (*model.Notification, error) {
	transaction := new(payments.Transaction)
	if _, err := s.handler.ParseNotifyRequest(ctx, r, transaction); err != nil {
		return nil, fmt.Errorf("verify wechat notification: %w", err)
	}

	n := &model.Notification{Channel: model.ChannelWechat}
	if transaction.OutTradeNo != nil {
		n.TransactionID = *transaction.OutTradeNo
	}
	if transaction.TradeState != nil {
		n.ProviderStatus = *transaction.TradeState
	}

	switch n.ProviderStatus {
	case "SUCCESS":
		n.Result = model.ResultAccepted
	case "NOTPAY", "USERPAYING":
		n.Result = model.ResultInProgress
	default:
		n.Result = model.ResultRejected
	}
	return n, nil
}

var _ PaymentStrategy = (*WechatStrategy)(nil)
