package model

import "strings"

// Status 订单状态
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// 店铺前台/后台展示用的法语文案
var statusLabels = map[Status]string{
	StatusPending:   "En attente",
	StatusPaid:      "Payée",
	StatusShipped:   "Expédiée",
	StatusDelivered: "Livrée",
	StatusCancelled: "Annulée",
}

// Label 展示文案
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus 接受内部值或展示文案（大小写不敏感）
func ParseStatus(v string) (Status, bool) {
	v = strings.TrimSpace(v)
	for s, label := range statusLabels {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, label) {
			return s, true
		}
	}
	return "", false
}
