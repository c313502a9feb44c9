package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"storefront/internal/domain/payment/model"
	"storefront/internal/pkg/config"
	"strings"
	"time"
)

// cinetPayClient CinetPay 服务端 API
type cinetPayClient struct {
	baseURL string
	apiKey  string
	siteID  string
	http    *http.Client
}

func newCinetPayClient(cfg config.CinetPayConfig, httpClient *http.Client) *cinetPayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &cinetPayClient{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:  cfg.APIKey,
		siteID:  cfg.SiteID,
		http:    httpClient,
	}
}

type cinetPayEnvelope struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

type initPaymentRequest struct {
	APIKey    string `json:"apikey"`
	SiteID    string `json:"site_id"`
	NotifyURL string `json:"notify_url"`
	Lang      string `json:"lang"`
	model.CinetPayCheckout
}

type initPaymentData struct {
	PaymentToken string `json:"payment_token"`
	PaymentURL   string `json:"payment_url"`
}

type checkPaymentRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
}

type checkPaymentData struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

// initPayment 申请托管支付页，成功码为 201
func (c *cinetPayClient) initPayment(ctx context.Context, req initPaymentRequest) (*initPaymentData, error) {
	req.APIKey, req.SiteID = c.apiKey, c.siteID
	env, err := c.post(ctx, "/v2/payment", req)
	if err != nil {
		return nil, err
	}
	if env.Code != "201" {
		return nil, fmt.Errorf("cinetpay init payment: code=%s message=%s %s", env.Code, env.Message, env.Description)
	}

	var data initPaymentData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("cinetpay init payment: decode data: %w", err)
	}
	if data.PaymentURL == "" {
		return nil, fmt.Errorf("cinetpay init payment: empty payment url")
	}
	return &data, nil
}

// checkPayment 查询交易状态，交易未结束时 data.status 为等待类状态
func (c *cinetPayClient) checkPayment(ctx context.Context, transactionID string) (*checkPaymentData, error) {
	env, err := c.post(ctx, "/v2/payment/check", checkPaymentRequest{
		APIKey:        c.apiKey,
		SiteID:        c.siteID,
		TransactionID: transactionID,
	})
	if err != nil {
		return nil, err
	}

	var data checkPaymentData
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("cinetpay check payment: decode data: %w", err)
		}
	}
	if data.Status == "" {
		return nil, fmt.Errorf("cinetpay check payment: code=%s message=%s", env.Code, env.Message)
	}
	return &data, nil
}

func (c *cinetPayClient) post(ctx context.Context, path string, body interface{}) (*cinetPayEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cinetpay %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cinetpay %s: read body: %w", path, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("cinetpay %s: unexpected status code %d", path, resp.StatusCode)
	}

	var env cinetPayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("cinetpay %s: decode response: %w", path, err)
	}
	return &env, nil
}
