package payment

import (
	"context"
	"net/http"
	"storefront/internal/domain/payment/handler"
	"storefront/internal/domain/payment/service"
	"storefront/internal/domain/payment/strategy"
	promoService "storefront/internal/domain/promo/service"
	"storefront/internal/pkg/middleware"
	"storefront/internal/pkg/registry"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 依赖订单与优惠码存储，所以优先级较低
	return 20
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	cfg := ctx.Config
	log := ctx.Logger.Named("payment")

	// 1. 依赖注入
	reconciler := service.NewReconciler(ctx.Orders, ctx.Markers, ctx.Events, ctx.Metrics, log)
	promos := promoService.NewPromoService(ctx.Promos, log)
	pService := service.NewPaymentService(ctx.Orders, promos, reconciler, ctx.Events, ctx.Metrics, cfg.Checkout, log)

	// 2. 注册支付策略
	// CinetPay 始终注册，凭证缺失在下单时报配置错误
	cinetpay := strategy.NewCinetPayStrategy(cfg.CinetPay, &http.Client{Timeout: 10 * time.Second})
	if err := cinetpay.Ready(); err != nil {
		log.Warn("cinetpay not ready, checkout will be refused", zap.Error(err))
	}
	pService.RegisterStrategy(cinetpay)

	// 支付宝
	if cfg.Alipay.AppID != "" {
		alipayStrategy, err := strategy.NewAlipayStrategy(cfg.Alipay)
		if err != nil {
			log.Error("Failed to init Alipay strategy", zap.Error(err))
		} else {
			pService.RegisterStrategy(alipayStrategy)
		}
	}

	// 微信支付
	if cfg.Wechat.MchID != "" {
		wechatStrategy, err := strategy.NewWechatStrategy(context.Background(), cfg.Wechat)
		if err != nil {
			log.Error("Failed to init Wechat strategy", zap.Error(err))
		} else {
			pService.RegisterStrategy(wechatStrategy)
		}
	}

	pHandler := handler.NewPaymentHandler(pService)

	// 3. 路由注册
	setupRoutes(ctx.Router, pHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payment")

	// 支付回调 (无需鉴权，但需验签)
	// CinetPay 其他方法由处理器返回 405
	g.Any("/notify/cinetpay", h.CinetPayNotify)
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)

	// 每个 IP 每秒 1 次，突发 5 次
	checkoutLimiter := middleware.NewIPRateLimiter(rate.Limit(1), 5)

	// 需要鉴权的接口
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/checkout", middleware.RateLimitMiddleware(checkoutLimiter), h.Checkout)
		auth.POST("/orders/:id/client-result", h.ClientResult)
	}
}
