package handler

import (
	"net/http"
	orderModel "storefront/internal/domain/order/model"
	"storefront/internal/domain/payment/model"
	"storefront/internal/domain/payment/service"
	"storefront/internal/pkg/middleware"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type CheckoutInput struct {
	Channel     string                     `json:"channel" binding:"omitempty,oneof=cinetpay alipay wechat"`
	Items       []orderModel.LineItem      `json:"items" binding:"required,min=1"` // unitPrice 为购物车快照，计价见 PaymentService.Initiate
	Shipping    orderModel.ShippingDetails `json:"shippingDetails"`
	Customer    model.Customer             `json:"customer"`
	PromoCode   string                     `json:"promoCode"`
	Description string                     `json:"description"`
}

// NotifyAck CinetPay 回调应答
type NotifyAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checkout 创建订单并返回收银台参数
// @Summary 发起支付
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body CheckoutInput true "Cart and shipping"
// @Success 200 {object} response.Response{data=service.CheckoutResult}
// @Router /payment/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Initiate(c.Request.Context(), uid, service.CheckoutInput{
		Channel:     input.Channel,
		Items:       input.Items,
		Shipping:    input.Shipping,
		Customer:    input.Customer,
		PromoCode:   input.PromoCode,
		Description: input.Description,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// ClientResult 收银台浏览器端回调
// @Summary 收银台回调
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body service.ClientResult true "Widget callback payload"
// @Success 200 {object} response.Response{data=service.ClientOutcome}
// @Router /payment/orders/{id}/client-result [post]
func (h *PaymentHandler) ClientResult(c *gin.Context) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input service.ClientResult
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	outcome, err := h.service.CompleteFromClient(c.Request.Context(), uid, c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, outcome)
}

// CinetPayNotify CinetPay 异步通知
// 业务结果一律 200，只有内部错误返回 500 让渠道重试
// @Summary CinetPay 回调
// @Tags Payment
// @Accept json
// @Produce json
// @Success 200 {object} NotifyAck
// @Failure 405 {object} NotifyAck
// @Failure 500 {object} NotifyAck
// @Router /payment/notify/cinetpay [post]
func (h *PaymentHandler) CinetPayNotify(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, NotifyAck{Success: false, Error: "Method not allowed"})
		return
	}

	outcome, err := h.service.HandleNotify(c.Request.Context(), model.ChannelCinetPay, c.Request)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NotifyAck{Success: false, Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, NotifyAck{Success: true, Message: outcome.Message})
}

// AlipayNotify 支付宝回调
// @Summary 支付宝回调
// @Tags Payment
// @Router /payment/notify/alipay [post]
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	if _, err := h.service.HandleNotify(c.Request.Context(), model.ChannelAlipay, c.Request); err != nil {
		c.String(http.StatusOK, "fail") // 告诉支付宝处理失败，它会重试
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付回调
// @Summary 微信支付回调
// @Tags Payment
// @Router /payment/notify/wechat [post]
func (h *PaymentHandler) WechatNotify(c *gin.Context) {
	if _, err := h.service.HandleNotify(c.Request.Context(), model.ChannelWechat, c.Request); err != nil {
		// 返回 4xx/5xx 表示失败
		c.JSON(http.StatusInternalServerError, gin.H{"code": "FAIL", "message": "internal error"})
		return
	}
	// 返回 2xx 表示成功
	c.Status(http.StatusOK)
}
