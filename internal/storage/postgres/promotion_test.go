package postgres

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-engine/internal/domain/promotion"
)

func TestRulePayloadRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("50")
	in := &promotion.ItemTotalRule{Amount: decimal.NewNullDecimal(amount)}

	prefs, kind := marshalRule(in)
	require.Equal(t, promotion.RuleItemTotal, kind)
	payload, err := json.Marshal(prefs)
	require.NoError(t, err)

	out, err := unmarshalRule(kind, payload)
	require.NoError(t, err)
	rule, ok := out.(*promotion.ItemTotalRule)
	require.True(t, ok)
	require.True(t, rule.Amount.Valid)
	assert.True(t, rule.Amount.Decimal.Equal(amount))
}

func TestRulePayload_MissingAmountStaysInvalid(t *testing.T) {
	prefs, kind := marshalRule(&promotion.ItemTotalRule{})
	payload, err := json.Marshal(prefs)
	require.NoError(t, err)

	out, err := unmarshalRule(kind, payload)
	require.NoError(t, err)
	rule := out.(*promotion.ItemTotalRule)
	assert.False(t, rule.Amount.Valid)
}

func TestRulePayload_UnknownKindErrors(t *testing.T) {
	_, err := unmarshalRule("frequent_flyer", []byte(`{}`))
	assert.Error(t, err)
}

func TestActionPayloadRoundTrip(t *testing.T) {
	in := promotion.Action{
		ID:   "a1",
		Type: promotion.ActionCreateAdjustment,
		Calculator: promotion.Calculator{
			Type:       promotion.CalcPerItemRate,
			Amount:     decimal.NewNullDecimal(decimal.RequireFromString("2.50")),
			ProductIDs: []string{"mug"},
		},
	}

	payload, err := json.Marshal(marshalAction(in))
	require.NoError(t, err)

	out, err := unmarshalAction("a1", in.Type, payload)
	require.NoError(t, err)
	assert.Equal(t, promotion.CalcPerItemRate, out.Calculator.Type)
	assert.Equal(t, []string{"mug"}, out.Calculator.ProductIDs)
	require.True(t, out.Calculator.Amount.Valid)
	assert.True(t, out.Calculator.Amount.Decimal.Equal(decimal.RequireFromString("2.50")))
	assert.False(t, out.Calculator.Percent.Valid)
}

func TestActionPayload_BundleItems(t *testing.T) {
	in := promotion.Action{
		ID:   "a1",
		Type: promotion.ActionCreateLineItems,
		Items: []promotion.BundleItem{
			{ProductID: "mug", Price: decimal.RequireFromString("40"), Quantity: 1},
		},
	}

	payload, err := json.Marshal(marshalAction(in))
	require.NoError(t, err)

	out, err := unmarshalAction("a1", in.Type, payload)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "mug", out.Items[0].ProductID)
	assert.Equal(t, 1, out.Items[0].Quantity)
	assert.True(t, out.Items[0].Price.Equal(decimal.RequireFromString("40")))
}

func TestActionPayload_NilCalculatorComputesZero(t *testing.T) {
	out, err := unmarshalAction("a1", promotion.ActionCreateAdjustment, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, promotion.ActionCreateAdjustment, out.Type)
	// The zero calculator is kept so checkout never breaks on a
	// misconfigured promotion.
	assert.Empty(t, out.Calculator.Type)
}

func TestActionPayload_UnknownKindErrors(t *testing.T) {
	_, err := unmarshalAction("a1", "apply_store_credit", []byte(`{}`))
	assert.Error(t, err)
}
