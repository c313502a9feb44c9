package handler

import (
	"errors"
	"net/http"
	"storefront/internal/domain/promo/model"
	"storefront/internal/domain/promo/service"
	"storefront/pkg/errs"
	"storefront/pkg/response"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PromoHandler struct {
	service service.PromoService
}

func NewPromoHandler(service service.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

type CreatePromoInput struct {
	Code            string          `json:"code" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discountPercent" binding:"required"`
	Total           int             `json:"total" binding:"min=0"`
	StartTime       *time.Time      `json:"startTime"`
	EndTime         *time.Time      `json:"endTime"`
}

// CreatePromo 创建优惠码
// @Summary 创建优惠码
// @Tags Promo
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePromoInput true "Promo code"
// @Success 200 {object} response.Response{data=model.PromoCode}
// @Router /admin/promo-codes [post]
func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var input CreatePromoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	promo, err := h.service.CreatePromo(c.Request.Context(), service.CreatePromoInput{
		Code:            input.Code,
		DiscountPercent: input.DiscountPercent,
		Total:           input.Total,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, promo)
}

// PreviewPromo 预览优惠码在给定小计下的折扣
// @Summary 预览优惠码
// @Tags Promo
// @Produce json
// @Param code path string true "Promo code"
// @Param subtotal query string true "Cart subtotal"
// @Success 200 {object} response.Response{data=model.Quote}
// @Router /promo-codes/{code} [get]
func (h *PromoHandler) PreviewPromo(c *gin.Context) {
	subtotal, err := decimal.NewFromString(c.DefaultQuery("subtotal", "0"))
	if err != nil || subtotal.IsNegative() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid subtotal")
		return
	}

	quote, err := h.service.Resolve(c.Request.Context(), c.Param("code"), subtotal)
	if err != nil {
		switch {
		case errs.IsKind(err, errs.KindNotFound):
			response.Fail(c, response.ErrPromoNotFound, "Code promo invalide")
		case errors.Is(err, model.ErrPromoUsedUp):
			response.Fail(c, response.ErrPromoUsedUp, "Code promo épuisé")
		case errs.IsKind(err, errs.KindValidation):
			response.Fail(c, response.ErrPromoInvalid, "Code promo expiré ou inactif")
		default:
			response.HandleError(c, err)
		}
		return
	}

	response.Success(c, quote)
}
