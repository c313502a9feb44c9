package handler

import (
	"net/http"
	"storefront/internal/domain/order/model"
	"storefront/internal/domain/order/service"
	"storefront/internal/pkg/middleware"
	"storefront/pkg/response"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	service service.OrderService
}

// NewOrderHandler 创建处理器
func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// UpdateStatusInput 后台改状态输入
type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// MyOrders 当前用户的订单
// @Summary 我的订单
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /orders [get]
func (h *OrderHandler) MyOrders(c *gin.Context) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.ListForUser(c.Request.Context(), uid, page)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// MyOrder 当前用户的订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /orders/{id} [get]
func (h *OrderHandler) MyOrder(c *gin.Context) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	order, err := h.service.GetForUser(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 后台订单列表
// @Summary 后台订单列表
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status value or label"
// @Param userId query string false "Owner"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	filter := model.Filter{UserID: c.Query("userId")}
	if raw := c.Query("status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "unknown order status")
			return
		}
		filter.Status = status
	}

	result, err := h.service.List(c.Request.Context(), filter, page)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 后台订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateStatus 后台修改订单状态
// @Summary 修改订单状态
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body UpdateStatusInput true "Target status"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// Stats 按状态汇总订单数与金额
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}
