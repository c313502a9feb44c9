package promo

import (
	"storefront/internal/domain/promo/handler"
	"storefront/internal/domain/promo/service"
	"storefront/internal/pkg/middleware"
	"storefront/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// PromoModule 优惠码模块
type PromoModule struct{}

func init() {
	registry.Register(&PromoModule{})
}

func (m *PromoModule) Name() string {
	return "promo"
}

func (m *PromoModule) Priority() int {
	return 10
}

func (m *PromoModule) Init(ctx *registry.ModuleContext) error {
	pService := service.NewPromoService(ctx.Promos, ctx.Logger)
	pHandler := handler.NewPromoHandler(pService)

	setupRoutes(ctx.Router, pHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PromoHandler) {
	r.GET("/promo-codes/:code", h.PreviewPromo)

	admin := r.Group("/admin/promo-codes")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("", h.CreatePromo)
	}
}
