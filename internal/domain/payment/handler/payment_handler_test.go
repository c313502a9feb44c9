package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	orderModel "storefront/internal/domain/order/model"
	orderRepo "storefront/internal/domain/order/repository"
	"storefront/internal/domain/payment/service"
	"storefront/internal/domain/payment/strategy"
	promoRepo "storefront/internal/domain/promo/repository"
	promoService "storefront/internal/domain/promo/service"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/events"
	"storefront/internal/pkg/idempotency"
	"storefront/internal/pkg/middleware"
	"storefront/pkg/errs"
	"storefront/pkg/metrics"
	"storefront/pkg/response"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type nopPublisher struct{}

func (nopPublisher) AddTask(events.OrderEvent) bool { return true }

// unavailableOrders 模拟数据库不可用
type unavailableOrders struct {
	orderRepo.OrderRepository
}

func (unavailableOrders) GetByID(context.Context, string) (*orderModel.Order, error) {
	return nil, errs.Storage("get order", errors.New("connection reset"))
}

func newRouter(orders orderRepo.OrderRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	collector := metrics.NewMetricsCollector(prometheus.NewRegistry())
	reconciler := service.NewReconciler(orders, idempotency.NewMemoryStore(0), nopPublisher{}, collector, zap.NewNop())
	promos := promoService.NewPromoService(promoRepo.NewMemoryPromoRepository(), zap.NewNop())
	svc := service.NewPaymentService(orders, promos, reconciler, nopPublisher{}, collector,
		config.CheckoutConfig{Currency: "XOF", ShippingFee: 2000}, zap.NewNop())
	svc.RegisterStrategy(strategy.NewCinetPayStrategy(config.CinetPayConfig{
		APIKey:    "key-123",
		SiteID:    "site-456",
		NotifyURL: "https://shop.example/payment/notify/cinetpay",
	}, nil))

	h := NewPaymentHandler(svc)

	r := gin.New()
	// 测试中用请求头模拟认证结果
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(middleware.ContextUserID, uid)
		}
	})
	r.Any("/payment/notify/cinetpay", h.CinetPayNotify)
	r.POST("/payment/checkout", h.Checkout)
	r.POST("/payment/orders/:id/client-result", h.ClientResult)
	return r
}

func seedOrder(t *testing.T, orders orderRepo.OrderRepository, status orderModel.Status) string {
	t.Helper()
	ctx := context.Background()
	id, err := orders.Create(ctx, &orderModel.Order{
		UserID:      "user-1",
		Items:       datatypes.NewJSONSlice([]orderModel.LineItem{{ProductID: "robe-1", Quantity: 1, UnitPrice: decimal.NewFromInt(10000)}}),
		TotalAmount: decimal.NewFromInt(12000),
		PromoCode:   datatypes.NewJSONType[*orderModel.PromoSnapshot](nil),
		Channel:     "cinetpay",
	})
	require.NoError(t, err)
	if status != orderModel.StatusPending {
		require.NoError(t, orders.UpdateStatus(ctx, id, status))
	}
	return id
}

func notify(r http.Handler, method, body string) (*httptest.ResponseRecorder, NotifyAck) {
	req := httptest.NewRequest(method, "/payment/notify/cinetpay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var ack NotifyAck
	_ = json.Unmarshal(w.Body.Bytes(), &ack)
	return w, ack
}

func TestCinetPayNotify_MethodNotAllowed(t *testing.T) {
	r := newRouter(orderRepo.NewMemoryOrderRepository())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w, ack := notify(r, method, "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.False(t, ack.Success)
		assert.Equal(t, "Method not allowed", ack.Error)
	}
}

func TestCinetPayNotify_Acknowledgements(t *testing.T) {
	orders := orderRepo.NewMemoryOrderRepository()
	r := newRouter(orders)
	pending := seedOrder(t, orders, orderModel.StatusPending)
	paid := seedOrder(t, orders, orderModel.StatusPaid)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"missing transaction id", `{"cpm_trans_status":"ACCEPTED"}`, service.MsgMissingTransactionID},
		{"unknown order", `{"cpm_trans_id":"nope","cpm_trans_status":"ACCEPTED"}`, service.MsgOrderNotFound},
		{"already paid", `{"cpm_trans_id":"` + paid + `","cpm_trans_status":"REFUSED"}`, service.MsgOrderAlreadyHandled},
		{"pending accepted", `{"cpm_trans_id":"` + pending + `","cpm_trans_status":"ACCEPTED"}`, service.MsgOrderUpdated},
		{"replay", `{"cpm_trans_id":"` + pending + `","cpm_trans_status":"ACCEPTED"}`, service.MsgOrderAlreadyHandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ack := notify(r, http.MethodPost, tt.body)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, ack.Success)
			assert.Equal(t, tt.wantMessage, ack.Message)
		})
	}

	got, err := orders.GetByID(context.Background(), paid)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaid, got.Status)
	got, err = orders.GetByID(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaid, got.Status)
}

func TestCinetPayNotify_InternalFailure(t *testing.T) {
	r := newRouter(unavailableOrders{})

	w, ack := notify(r, http.MethodPost, `{"cpm_trans_id":"order-1","cpm_trans_status":"ACCEPTED"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, ack.Success)
	assert.Equal(t, "Internal server error", ack.Error)

	w, _ = notify(r, http.MethodPost, `{"cpm_trans_id":`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCheckout(t *testing.T) {
	orders := orderRepo.NewMemoryOrderRepository()
	r := newRouter(orders)

	body := `{
		"items": [{"productId":"robe-1","name":"Robe wax","quantity":1,"unitPrice":10000}],
		"shippingDetails": {"fullName":"Awa Koné","address":"Rue 12","city":"Abidjan","country":"CI","phone":"+2250700000000"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/payment/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Code int                    `json:"code"`
		Data service.CheckoutResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.True(t, resp.Data.TotalAmount.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, resp.Data.OrderID, resp.Data.Session.Checkout.TransactionID)

	order, err := orders.GetByID(context.Background(), resp.Data.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusPending, order.Status)
}

func TestCheckout_Rejections(t *testing.T) {
	r := newRouter(orderRepo.NewMemoryOrderRepository())

	tests := []struct {
		name     string
		user     string
		body     string
		wantCode int
	}{
		{"anonymous", "", `{}`, http.StatusUnauthorized},
		{"empty cart", "user-1", `{"items":[]}`, http.StatusBadRequest},
		{"missing shipping", "user-1", `{"items":[{"productId":"robe-1","quantity":1,"unitPrice":10000}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payment/checkout", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.user != "" {
				req.Header.Set("X-Test-User", tt.user)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestClientResult(t *testing.T) {
	orders := orderRepo.NewMemoryOrderRepository()
	r := newRouter(orders)
	id := seedOrder(t, orders, orderModel.StatusPending)

	post := func(user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payment/orders/"+id+"/client-result", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("user-2", `{"status":"REFUSED"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post("user-1", `{"status":"REFUSED"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.ClientOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Applied)
	assert.Equal(t, orderModel.StatusCancelled, resp.Data.Status)
}
