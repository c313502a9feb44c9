package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	orderModel "storefront/internal/domain/order/model"
	orderRepo "storefront/internal/domain/order/repository"
	"storefront/internal/domain/payment/model"
	"storefront/internal/domain/payment/strategy"
	promoModel "storefront/internal/domain/promo/model"
	promoService "storefront/internal/domain/promo/service"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/events"
	"storefront/pkg/errs"
	"storefront/pkg/metrics"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 前端提示文案
const (
	MsgPaymentAccepted   = "Paiement effectué. Votre commande est en cours de confirmation."
	MsgPaymentProcessing = "Paiement en cours de traitement."
	MsgPaymentFailed     = "Le paiement a échoué. Votre commande a été annulée."
	MsgTechnicalError    = "Une erreur technique est survenue. Veuillez réessayer."
)

type PaymentService interface {
	RegisterStrategy(s strategy.PaymentStrategy)
	// Initiate 先落库 pending 订单，再向渠道申请支付参数
	Initiate(ctx context.Context, userID string, input CheckoutInput) (*CheckoutResult, error)
	// CompleteFromClient 处理收银台在浏览器端的回调，结果不作为最终依据
	CompleteFromClient(ctx context.Context, userID, orderID string, result ClientResult) (*ClientOutcome, error)
	// HandleNotify 解析渠道异步通知并对账
	HandleNotify(ctx context.Context, channel string, r *http.Request) (*model.Outcome, error)
}

type CheckoutInput struct {
	Channel     string
	Items       []orderModel.LineItem
	Shipping    orderModel.ShippingDetails
	Customer    model.Customer
	PromoCode   string
	Description string
}

type CheckoutResult struct {
	OrderID     string                 `json:"orderId"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	Currency    string                 `json:"currency"`
	Session     *model.CheckoutSession `json:"session"`
}

// ClientResult 收银台回调内容
// Error 非空表示 error 回调被触发
type ClientResult struct {
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

type ClientOutcome struct {
	OrderID   string            `json:"orderId"`
	Status    orderModel.Status `json:"status"`
	Applied   bool              `json:"applied"`
	Message   string            `json:"message"`
	Redirect  string            `json:"redirect,omitempty"`
	ClearCart bool              `json:"clearCart"`
}

type paymentService struct {
	orders     orderRepo.OrderRepository
	promos     promoService.PromoService
	reconciler *Reconciler
	events     events.Publisher
	metrics    *metrics.MetricsCollector
	checkout   config.CheckoutConfig
	strategies map[string]strategy.PaymentStrategy
	log        *zap.Logger
}

func NewPaymentService(
	orders orderRepo.OrderRepository,
	promos promoService.PromoService,
	reconciler *Reconciler,
	publisher events.Publisher,
	collector *metrics.MetricsCollector,
	checkout config.CheckoutConfig,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		orders:     orders,
		promos:     promos,
		reconciler: reconciler,
		events:     publisher,
		metrics:    collector,
		checkout:   checkout,
		strategies: make(map[string]strategy.PaymentStrategy),
		log:        log,
	}
}

// RegisterStrategy 注册支付策略
func (s *paymentService) RegisterStrategy(st strategy.PaymentStrategy) {
	s.strategies[st.Channel()] = st
}

func (s *paymentService) strategyFor(channel string) (strategy.PaymentStrategy, error) {
	st, ok := s.strategies[channel]
	if !ok {
		return nil, errs.Configuration("unsupported payment channel: " + channel)
	}
	return st, nil
}

func (s *paymentService) Initiate(ctx context.Context, userID string, input CheckoutInput) (*CheckoutResult, error) {
	if input.Channel == "" {
		input.Channel = model.ChannelCinetPay
	}
	if err := validateCheckout(userID, input); err != nil {
		return nil, err
	}

	// 1. 渠道配置缺失时不创建订单
	st, err := s.strategyFor(input.Channel)
	if err != nil {
		return nil, err
	}
	if err := st.Ready(); err != nil {
		s.metrics.RecordCheckout(input.Channel, "misconfigured")
		return nil, err
	}

	// 2. 计价：小计 - 折扣 + 运费
	// TODO: 单价目前取自前端购物车，接入商品服务后在这里按 ProductID 查目录价覆盖 UnitPrice
	subtotal := orderModel.Subtotal(input.Items)
	var promo *orderModel.PromoSnapshot
	if code := promoModel.NormalizeCode(input.PromoCode); code != "" {
		quote, err := s.promos.Resolve(ctx, code, subtotal)
		if err != nil {
			if errs.IsKind(err, errs.KindNotFound) {
				return nil, errs.Validation("promo code not found")
			}
			return nil, err
		}
		if err := s.promos.Redeem(ctx, quote.Code); err != nil {
			return nil, err
		}
		promo = &orderModel.PromoSnapshot{Code: quote.Code, DiscountAmount: quote.DiscountAmount}
	}

	total := subtotal.Add(decimal.NewFromInt(s.checkout.ShippingFee))
	if promo != nil {
		total = total.Sub(promo.DiscountAmount)
	}
	// 落库金额即渠道收款金额
	total = total.Round(s.checkout.Precision)

	// 3. 先落库，通知到达时一定能找到订单
	order := &orderModel.Order{
		UserID:          userID,
		Items:           datatypes.NewJSONSlice(input.Items),
		ShippingDetails: datatypes.NewJSONType(input.Shipping),
		TotalAmount:     total,
		PromoCode:       datatypes.NewJSONType(promo),
		Channel:         input.Channel,
	}
	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		s.releasePromo(ctx, promo)
		return nil, err
	}

	log := s.log.With(zap.String("order_id", orderID), zap.String("channel", input.Channel))

	description := input.Description
	if description == "" {
		description = "Commande " + orderID
	}

	// 4. 订单号即渠道交易号
	session, err := st.Checkout(ctx, model.CheckoutRequest{
		OrderID:     orderID,
		Amount:      total,
		Currency:    s.checkout.Currency,
		Description: description,
		Customer:    customerFor(input.Customer, input.Shipping),
	})
	if err != nil {
		log.Error("checkout failed, cancelling order", zap.Error(err))
		if _, terr := s.orders.TransitionIfPending(ctx, orderID, orderModel.StatusCancelled); terr != nil {
			log.Error("failed to cancel order after checkout error", zap.Error(terr))
		}
		s.releasePromo(ctx, promo)
		s.metrics.RecordCheckout(input.Channel, "failed")
		if errs.KindOf(err) == "" {
			err = errs.PaymentProvider("payment provider unavailable", err)
		}
		return nil, err
	}

	s.metrics.RecordCheckout(input.Channel, "created")
	log.Info("checkout session created", zap.String("total", total.String()))

	return &CheckoutResult{
		OrderID:     orderID,
		TotalAmount: total,
		Currency:    s.checkout.Currency,
		Session:     session,
	}, nil
}

func (s *paymentService) CompleteFromClient(ctx context.Context, userID, orderID string, result ClientResult) (*ClientOutcome, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, orderModel.ErrOrderNotFound
	}

	log := s.log.With(zap.String("order_id", orderID), zap.String("client_status", result.Status))

	hasError := len(bytes.TrimSpace(result.Error)) > 0
	if hasError && !emptyProviderError(result.Error) {
		log.Warn("payment widget reported an error", zap.ByteString("error", result.Error))
		return s.cancelFromClient(ctx, order, log)
	}

	if strings.TrimSpace(result.Status) == "" {
		if hasError {
			// 空错误对象多半是收银台配置问题，交给异步通知定夺
			log.Warn("empty error from payment widget, order left pending")
			return &ClientOutcome{OrderID: orderID, Status: order.Status, Message: MsgTechnicalError}, nil
		}
		return nil, errs.Validation("status or error is required")
	}

	switch model.ClassifyCinetPayStatus(result.Status) {
	case model.ResultAccepted:
		// 以异步通知为准，这里不写状态
		return acceptedOutcome(order.ID, order.Status), nil
	case model.ResultInProgress:
		return &ClientOutcome{OrderID: orderID, Status: order.Status, Message: MsgPaymentProcessing}, nil
	default:
		return s.cancelFromClient(ctx, order, log)
	}
}

func (s *paymentService) cancelFromClient(ctx context.Context, order *orderModel.Order, log *zap.Logger) (*ClientOutcome, error) {
	res, err := s.orders.TransitionIfPending(ctx, order.ID, orderModel.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(events.SourceClient, string(orderModel.StatusCancelled), res.Applied)

	if !res.Applied {
		// 回调先到，保留其结果
		log.Info("client cancel skipped, order already settled", zap.String("final_status", string(res.FinalStatus)))
		if res.FinalStatus == orderModel.StatusPaid {
			return acceptedOutcome(order.ID, res.FinalStatus), nil
		}
		return &ClientOutcome{OrderID: order.ID, Status: res.FinalStatus, Message: MsgPaymentFailed}, nil
	}

	s.events.AddTask(events.OrderEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		PreviousStatus: string(orderModel.StatusPending),
		Status:         string(res.FinalStatus),
		Source:         events.SourceClient,
		Channel:        order.Channel,
		TotalAmount:    order.TotalAmount,
		OccurredAt:     time.Now().UTC(),
	})
	log.Info("order cancelled from client callback")

	return &ClientOutcome{OrderID: order.ID, Status: res.FinalStatus, Applied: true, Message: MsgPaymentFailed}, nil
}

func (s *paymentService) HandleNotify(ctx context.Context, channel string, r *http.Request) (*model.Outcome, error) {
	st, err := s.strategyFor(channel)
	if err != nil {
		return nil, err
	}

	n, err := st.ParseNotification(ctx, r)
	if err != nil {
		s.log.Error("notification could not be parsed", zap.String("channel", channel), zap.Error(err))
		return nil, err
	}
	return s.reconciler.Reconcile(ctx, n)
}

func (s *paymentService) releasePromo(ctx context.Context, promo *orderModel.PromoSnapshot) {
	if promo != nil {
		s.promos.Release(ctx, promo.Code)
	}
}

func acceptedOutcome(orderID string, status orderModel.Status) *ClientOutcome {
	return &ClientOutcome{
		OrderID:   orderID,
		Status:    status,
		Message:   MsgPaymentAccepted,
		Redirect:  fmt.Sprintf("/account/orders/%s", orderID),
		ClearCart: true,
	}
}

func validateCheckout(userID string, input CheckoutInput) error {
	if userID == "" {
		return orderModel.ErrMissingUserID
	}
	if len(input.Items) == 0 {
		return orderModel.ErrNoItems
	}
	for i, item := range input.Items {
		if item.ProductID == "" {
			return errs.Validation(fmt.Sprintf("items[%d].productId is required", i))
		}
		if item.Quantity <= 0 {
			return errs.Validation(fmt.Sprintf("items[%d].quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return errs.Validation(fmt.Sprintf("items[%d].unitPrice cannot be negative", i))
		}
	}

	sh := input.Shipping
	var missing []string
	if strings.TrimSpace(sh.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(sh.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(sh.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(sh.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return errs.Validation("missing shipping fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// customerFor 未填写的付款人信息用收货信息补齐
func customerFor(c model.Customer, sh orderModel.ShippingDetails) model.Customer {
	if c.Name == "" && c.Surname == "" {
		parts := strings.Fields(sh.FullName)
		if len(parts) > 0 {
			c.Name = parts[0]
			c.Surname = strings.Join(parts[1:], " ")
		}
	}
	if c.Phone == "" {
		c.Phone = sh.Phone
	}
	if c.Address == "" {
		c.Address = sh.Address
	}
	if c.City == "" {
		c.City = sh.City
	}
	if c.Country == "" {
		c.Country = sh.Country
	}
	if c.ZipCode == "" {
		c.ZipCode = sh.PostalCode
	}
	return c
}

// emptyProviderError null、""、{}、[] 都算空
func emptyProviderError(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}
