package order

import (
	"storefront/internal/domain/order/handler"
	"storefront/internal/domain/order/service"
	"storefront/internal/pkg/middleware"
	"storefront/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule 订单模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 10
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	oService := service.NewOrderService(ctx.Orders, ctx.OrderStats, ctx.Events, ctx.Logger)
	oHandler := handler.NewOrderHandler(oService)

	setupRoutes(ctx.Router, oHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	account := r.Group("/orders")
	account.Use(middleware.AuthMiddleware())
	{
		account.GET("", h.MyOrders)
		account.GET("/:id", h.MyOrder)
	}

	admin := r.Group("/admin/orders")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("", h.ListOrders)
		admin.GET("/stats", h.Stats)
		admin.GET("/:id", h.GetOrder)
		admin.PUT("/:id/status", h.UpdateStatus)
	}
}
