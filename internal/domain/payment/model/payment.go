package model

import (
	orderModel "storefront/internal/domain/order/model"
	"strings"

	"github.com/shopspring/decimal"
)

// 支付渠道
const (
	ChannelCinetPay = "cinetpay"
	ChannelAlipay   = "alipay"
	ChannelWechat   = "wechat"
)

// Result 渠道结果归一化后的三种取值
type Result string

const (
	ResultAccepted   Result = "accepted"
	ResultRejected   Result = "rejected"
	ResultInProgress Result = "in_progress"
)

// Notification 渠道异步通知解析结果
// TransactionID 即订单 ID
type Notification struct {
	Channel        string `json:"channel"`
	TransactionID  string `json:"transactionId"`
	ProviderStatus string `json:"providerStatus"`
	Result         Result `json:"result"`
}

// TargetStatus 终态结果对应的订单状态
func (n *Notification) TargetStatus() orderModel.Status {
	if n.Result == ResultAccepted {
		return orderModel.StatusPaid
	}
	return orderModel.StatusCancelled
}

// Action 对账处理结果
type Action string

const (
	ActionApplied              Action = "applied"
	ActionAlreadyProcessed     Action = "already_processed"
	ActionOrderNotFound        Action = "order_not_found"
	ActionMissingTransactionID Action = "missing_transaction_id"
	ActionStillPending         Action = "still_pending"
)

// Outcome 一次对账的结果，所有业务分支都应答成功
type Outcome struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
	// FinalStatus 本次读到或写入的订单状态，命中去重标记时为空
	FinalStatus orderModel.Status `json:"finalStatus,omitempty"`
	// ReconciledStatus 对账落定的状态，命中去重标记时取自标记，之后的人工改动不会反映在这里
	ReconciledStatus orderModel.Status `json:"reconciledStatus,omitempty"`
}

// CinetPay 交易状态
const (
	CinetPayAccepted = "ACCEPTED"
	CinetPayRefused  = "REFUSED"
)

// ClassifyCinetPayStatus ACCEPTED 为成功，等待类状态不落库，其余一律视为失败
func ClassifyCinetPayStatus(status string) Result {
	s := strings.ToUpper(strings.TrimSpace(status))
	switch {
	case s == CinetPayAccepted:
		return ResultAccepted
	case s == "PENDING", strings.HasPrefix(s, "WAITING"):
		return ResultInProgress
	default:
		return ResultRejected
	}
}

// Customer 付款人信息，缺省字段从收货信息补齐
type Customer struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

// CheckoutRequest 交给渠道的支付请求
type CheckoutRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Customer    Customer
}

// CheckoutSession 浏览器端拉起支付所需的全部参数
type CheckoutSession struct {
	Channel  string            `json:"channel"`
	Widget   *CinetPayWidget   `json:"widget,omitempty"`
	Checkout *CinetPayCheckout `json:"checkout,omitempty"`
	// PaymentURL 托管支付页地址
	PaymentURL string `json:"paymentUrl,omitempty"`
	// PayParam 支付宝签名串或微信 prepay_id
	PayParam string `json:"payParam,omitempty"`
}

// CinetPayWidget 收银台 SDK 初始化参数
type CinetPayWidget struct {
	APIKey    string `json:"apikey"`
	SiteID    string `json:"site_id"`
	NotifyURL string `json:"notify_url"`
	Mode      string `json:"mode"`
}

// CinetPayCheckout 收银台 getCheckout 参数
type CinetPayCheckout struct {
	TransactionID       string `json:"transaction_id"`
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	Channels            string `json:"channels"`
	Description         string `json:"description"`
	ReturnURL           string `json:"return_url,omitempty"`
	CancelURL           string `json:"cancel_url,omitempty"`
	CustomerName        string `json:"customer_name"`
	CustomerSurname     string `json:"customer_surname"`
	CustomerEmail       string `json:"customer_email"`
	CustomerPhoneNumber string `json:"customer_phone_number"`
	CustomerAddress     string `json:"customer_address"`
	CustomerCity        string `json:"customer_city"`
	CustomerCountry     string `json:"customer_country"`
	CustomerState       string `json:"customer_state"`
	CustomerZipCode     string `json:"customer_zip_code"`
}
