package response

import (
	"net/http"
	"storefront/pkg/errs"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError 按错误分类映射 HTTP 状态码
// 存储错误不向外暴露细节
func HandleError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		Error(c, http.StatusBadRequest, ErrInvalidParam, err.Error())
	case errs.KindNotFound:
		Error(c, http.StatusNotFound, ErrOrderNotFound, err.Error())
	case errs.KindForbidden:
		Error(c, http.StatusForbidden, ErrNoPermission, err.Error())
	case errs.KindConfiguration:
		Error(c, http.StatusServiceUnavailable, ErrPaymentConfig, err.Error())
	case errs.KindPaymentProvider:
		Error(c, http.StatusBadGateway, ErrPaymentProvider, err.Error())
	default:
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
	}
}
