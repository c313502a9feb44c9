package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 鉴权错误 100xx
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 优惠码错误 200xx
	ErrPromoNotFound = 20001
	ErrPromoInvalid  = 20002
	ErrPromoUsedUp   = 20003

	// 订单错误 300xx
	ErrOrderNotFound = 30001
	ErrOrderInvalid  = 30002

	// 支付错误 400xx
	ErrPaymentConfig   = 40001
	ErrPaymentProvider = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
