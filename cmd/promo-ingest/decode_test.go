package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-engine/internal/domain/promotion"
)

func TestDecodePromotion(t *testing.T) {
	line := []byte(`{
		"id": "promo-1",
		"name": "Big Spender",
		"code": "SAVE5",
		"event": "coupon_code_added",
		"starts_at": "2024-06-01T00:00:00Z",
		"expires_at": null,
		"advertise": true,
		"usage_limit": 10,
		"rules": [
			{"kind": "item_total", "amount": "50"},
			{"kind": "product", "product_ids": ["mug", "bag"]}
		],
		"actions": [
			{"id": "a1", "kind": "create_adjustment",
			 "calculator": {"type": "flat_rate", "amount": "5"}}
		]
	}`)

	p, err := decodePromotion(line)
	require.NoError(t, err)

	assert.Equal(t, "promo-1", p.ID)
	assert.Equal(t, "SAVE5", p.Code)
	assert.Equal(t, promotion.EventCouponAdded, p.Event)
	require.NotNil(t, p.StartsAt)
	assert.Nil(t, p.ExpiresAt)
	assert.True(t, p.Advertise)
	assert.Equal(t, 10, p.UsageLimit)

	require.Len(t, p.Rules, 2)
	itemTotal, ok := p.Rules[0].(*promotion.ItemTotalRule)
	require.True(t, ok)
	require.True(t, itemTotal.Amount.Valid)
	assert.True(t, itemTotal.Amount.Decimal.Equal(decimal.RequireFromString("50")))

	require.Len(t, p.Actions, 1)
	assert.Equal(t, promotion.ActionCreateAdjustment, p.Actions[0].Type)
	assert.Equal(t, promotion.CalcFlatRate, p.Actions[0].Calculator.Type)
}

func TestDecodePromotion_Defaults(t *testing.T) {
	p, err := decodePromotion([]byte(`{"id": "promo-1", "name": "Bare"}`))
	require.NoError(t, err)

	// Promotions without an explicit trigger re-check on cart changes.
	assert.Equal(t, promotion.EventContentsChanged, p.Event)
	assert.Empty(t, p.Rules)
}

func TestDecodePromotion_MissingID(t *testing.T) {
	_, err := decodePromotion([]byte(`{"name": "No ID"}`))
	assert.Error(t, err)
}

func TestDecodePromotion_BundleAction(t *testing.T) {
	line := []byte(`{
		"id": "promo-1",
		"actions": [
			{"id": "a1", "kind": "create_line_items",
			 "items": [{"product_id": "mug", "price": "40", "quantity": 1}]}
		]
	}`)

	p, err := decodePromotion(line)
	require.NoError(t, err)
	require.Len(t, p.Actions, 1)
	require.Len(t, p.Actions[0].Items, 1)
	assert.Equal(t, "mug", p.Actions[0].Items[0].ProductID)
	assert.True(t, p.Actions[0].Items[0].Price.Equal(decimal.RequireFromString("40")))
}

func TestDecodePromotion_UnknownRuleKind(t *testing.T) {
	line := []byte(`{"id": "promo-1", "rules": [{"kind": "loyalty_tier"}]}`)
	_, err := decodePromotion(line)
	assert.Error(t, err)
}
