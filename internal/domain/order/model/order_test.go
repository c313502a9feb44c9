package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"paid", StatusPaid, true},
		{"PAID", StatusPaid, true},
		{"Payée", StatusPaid, true},
		{"En attente", StatusPending, true},
		{" annulée ", StatusCancelled, true},
		{"refunded", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Expédiée", StatusShipped.Label())
	assert.Equal(t, "unknown", Status("unknown").Label())
	assert.False(t, Status("unknown").Valid())
}

func TestSubtotal(t *testing.T) {
	items := []LineItem{
		{ProductID: "robe-1", Quantity: 2, UnitPrice: decimal.NewFromInt(4500)},
		{ProductID: "sac-7", Quantity: 1, UnitPrice: decimal.NewFromInt(3000)},
	}
	assert.True(t, Subtotal(items).Equal(decimal.NewFromInt(12000)))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestOrderJSONShape(t *testing.T) {
	o := Order{
		UserID:          "user-1",
		Items:           datatypes.NewJSONSlice([]LineItem{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10000)}}),
		ShippingDetails: datatypes.NewJSONType(ShippingDetails{Address: "Rue 12", City: "Abidjan", Phone: "+2250700000000"}),
		TotalAmount:     decimal.NewFromInt(12000),
		Status:          StatusPending,
	}
	o.ID = "order-1"

	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "order-1", out["id"])
	assert.Equal(t, "pending", out["status"])
	assert.Nil(t, out["promoCode"])
	assert.Equal(t, "Abidjan", out["shippingDetails"].(map[string]interface{})["city"])
	assert.Nil(t, o.Promo())
}
