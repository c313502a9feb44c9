package push

import (
	"context"
	"encoding/json"
	"fmt"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/events"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
)

type PushService interface {
	PushToAccount(accountID string, title, body string, extParameters map[string]string) error
}

// pushClient 阿里云 SDK 客户端的最小接口
type pushClient interface {
	Push(request *push.PushRequest) (*push.PushResponse, error)
}

type AliyunPushService struct {
	client pushClient
	appKey int64
}

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, fmt.Errorf("push config is missing")
	}

	client, err := push.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{
		client: client,
		appKey: cfg.AppKey,
	}, nil
}

func (s *AliyunPushService) PushToAccount(accountID string, title, body string, extParameters map[string]string) error {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = "ACCOUNT"
	request.TargetValue = accountID
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	if len(extParameters) > 0 {
		extJSON, _ := json.Marshal(extParameters)
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	_, err := s.client.Push(request)
	return err
}

// OrderNotifier 把支付结果推送给下单用户
type OrderNotifier struct {
	service PushService
}

func NewOrderNotifier(service PushService) *OrderNotifier {
	return &OrderNotifier{service: service}
}

func (n *OrderNotifier) Name() string { return "aliyun_push" }

func (n *OrderNotifier) Publish(ctx context.Context, event events.OrderEvent) error {
	title, body, ok := message(event)
	if !ok || event.UserID == "" {
		return nil
	}
	return n.service.PushToAccount(event.UserID, title, body, map[string]string{
		"orderId": event.OrderID,
		"status":  event.Status,
	})
}

// message 只推送支付结果，后台发货等状态不推
func message(event events.OrderEvent) (title, body string, ok bool) {
	switch event.Status {
	case "paid":
		return "Paiement confirmé", fmt.Sprintf("Votre commande %s a été payée.", event.OrderID), true
	case "cancelled":
		return "Paiement échoué", fmt.Sprintf("Votre commande %s a été annulée.", event.OrderID), true
	}
	return "", "", false
}
