package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"storefront/internal/domain/payment/model"
	"storefront/internal/pkg/config"
	"storefront/pkg/errs"
	"strings"
)

const maxNotificationBody = 64 << 10

// CinetPayStrategy 收银台由浏览器端 SDK 拉起，服务端负责生成参数与核对通知
type CinetPayStrategy struct {
	config config.CinetPayConfig
	client *cinetPayClient
}

func NewCinetPayStrategy(cfg config.CinetPayConfig, httpClient *http.Client) *CinetPayStrategy {
	return &CinetPayStrategy{
		config: cfg,
		client: newCinetPayClient(cfg, httpClient),
	}
}

func (s *CinetPayStrategy) Channel() string {
	return model.ChannelCinetPay
}

func (s *CinetPayStrategy) Ready() error {
	var missing []string
	if s.config.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if s.config.SiteID == "" {
		missing = append(missing, "site_id")
	}
	if s.config.NotifyURL == "" {
		missing = append(missing, "notify_url")
	}
	if len(missing) > 0 {
		return errs.Configuration("cinetpay is not configured: missing " + strings.Join(missing, ", "))
	}
	return nil
}

func (s *CinetPayStrategy) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	if !req.Amount.Equal(req.Amount.Truncate(0)) {
		return nil, errs.Validation("cinetpay amount must be a whole number: " + req.Amount.String())
	}

	channels := s.config.Channels
	if channels == "" {
		channels = "ALL"
	}

	c := req.Customer
	checkout := &model.CinetPayCheckout{
		TransactionID:       req.OrderID,
		Amount:              req.Amount.IntPart(),
		Currency:            req.Currency,
		Channels:            channels,
		Description:         req.Description,
		ReturnURL:           s.config.ReturnURL,
		CancelURL:           s.config.CancelURL,
		CustomerName:        c.Name,
		CustomerSurname:     c.Surname,
		CustomerEmail:       c.Email,
		CustomerPhoneNumber: c.Phone,
		CustomerAddress:     c.Address,
		CustomerCity:        c.City,
		CustomerCountry:     c.Country,
		CustomerState:       c.Country,
		CustomerZipCode:     c.ZipCode,
	}

	session := &model.CheckoutSession{
		Channel: model.ChannelCinetPay,
		Widget: &model.CinetPayWidget{
			APIKey:    s.config.APIKey,
			SiteID:    s.config.SiteID,
			NotifyURL: s.config.NotifyURL,
			Mode:      s.config.Mode,
		},
		Checkout: checkout,
	}

	if s.config.HostedPage {
		data, err := s.client.initPayment(ctx, initPaymentRequest{
			NotifyURL:        s.config.NotifyURL,
			Lang:             "fr",
			CinetPayCheckout: *checkout,
		})
		if err != nil {
			return nil, errs.PaymentProvider("cinetpay payment page unavailable", err)
		}
		session.PaymentURL = data.PaymentURL
	}

	return session, nil
}

// ParseNotification 通知体可能是 JSON 或表单
// 通知未携带 cpm_trans_status 时向 /v2/payment/check 查询
func (s *CinetPayStrategy) ParseNotification(ctx context.Context, r *http.Request) (*model.Notification, error) {
	fields, err := decodeNotificationBody(r)
	if err != nil {
		return nil, err
	}

	n := &model.Notification{
		Channel:        model.ChannelCinetPay,
		TransactionID:  strings.TrimSpace(fields["cpm_trans_id"]),
		ProviderStatus: strings.TrimSpace(fields["cpm_trans_status"]),
	}
	if n.TransactionID == "" {
		return n, nil
	}

	if n.ProviderStatus == "" {
		if s.Ready() != nil {
			// 无法核实，不落库
			n.Result = model.ResultInProgress
			return n, nil
		}
		data, err := s.client.checkPayment(ctx, n.TransactionID)
		if err != nil {
			return nil, errs.PaymentProvider("cinetpay status check failed", err)
		}
		n.ProviderStatus = data.Status
	}

	n.Result = model.ClassifyCinetPayStatus(n.ProviderStatus)
	return n, nil
}

func decodeNotificationBody(r *http.Request) (map[string]string, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
	if err != nil {
		return nil, fmt.Errorf("read notification body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	fields := make(map[string]string)
	if len(raw) == 0 {
		return fields, nil
	}

	if raw[0] == '{' || strings.Contains(r.Header.Get("Content-Type"), "json") {
		var body map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode notification json: %w", err)
		}
		for k, v := range body {
			if v != nil {
				fields[k] = fmt.Sprint(v)
			}
		}
		return fields, nil
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decode notification form: %w", err)
	}
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, nil
}

var _ PaymentStrategy = (*CinetPayStrategy)(nil)
