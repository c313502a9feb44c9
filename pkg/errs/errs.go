package errs

import "errors"

// Kind 错误分类
type Kind string

const (
	KindValidation      Kind = "validation"
	KindConfiguration   Kind = "configuration"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindStorage         Kind = "storage"
	KindPaymentProvider Kind = "payment_provider"
)

// Error 带分类的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 参数校验失败，直接提示给用户
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Configuration 支付渠道等配置缺失
func Configuration(msg string) error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// Storage 包装存储层 I/O 错误
func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// PaymentProvider 包装支付渠道返回的错误
func PaymentProvider(msg string, err error) error {
	return &Error{Kind: KindPaymentProvider, Msg: msg, Err: err}
}

// KindOf 取出错误链上第一个分类，未分类返回空
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断错误链上是否存在指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
