package main

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/promotion"
)

// decodePromotion parses one feed line. Monetary values arrive as JSON
// strings to keep the feed lossless; timestamps are RFC 3339.
func decodePromotion(line []byte) (*promotion.Promotion, error) {
	d := jx.DecodeBytes(line)
	p := &promotion.Promotion{}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeStr(d, &p.ID)
		case "name":
			return decodeStr(d, &p.Name)
		case "code":
			return decodeStr(d, &p.Code)
		case "event":
			v, err := d.Str()
			p.Event = promotion.Event(v)
			return err
		case "starts_at":
			return decodeTime(d, &p.StartsAt)
		case "expires_at":
			return decodeTime(d, &p.ExpiresAt)
		case "advertise":
			v, err := d.Bool()
			p.Advertise = v
			return err
		case "usage_limit":
			v, err := d.Int()
			p.UsageLimit = v
			return err
		case "rules":
			return d.Arr(func(d *jx.Decoder) error {
				rule, err := decodeRule(d)
				if err != nil {
					return err
				}
				p.Rules = append(p.Rules, rule)
				return nil
			})
		case "actions":
			return d.Arr(func(d *jx.Decoder) error {
				action, err := decodeAction(d)
				if err != nil {
					return err
				}
				p.Actions = append(p.Actions, action)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode promotion")
	}
	if p.ID == "" {
		return nil, errors.New("promotion id is required")
	}
	if p.Event == "" {
		p.Event = promotion.EventContentsChanged
	}
	return p, nil
}

func decodeRule(d *jx.Decoder) (promotion.Rule, error) {
	var (
		kind       string
		amount     decimal.NullDecimal
		productIDs []string
		path       string
	)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			return decodeStr(d, &kind)
		case "amount":
			return decodeDecimal(d, &amount)
		case "product_ids":
			return decodeStrings(d, &productIDs)
		case "path":
			return decodeStr(d, &path)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode rule")
	}

	switch promotion.RuleKind(kind) {
	case promotion.RuleItemTotal:
		return &promotion.ItemTotalRule{Amount: amount}, nil
	case promotion.RuleProduct:
		return &promotion.ProductRule{ProductIDs: productIDs}, nil
	case promotion.RuleFirstOrder:
		return &promotion.FirstOrderRule{}, nil
	case promotion.RuleUserLoggedIn:
		return &promotion.UserLoggedInRule{}, nil
	case promotion.RuleLandingPage:
		return &promotion.LandingPageRule{Path: path}, nil
	default:
		return nil, errors.Errorf("unknown rule kind %q", kind)
	}
}

func decodeAction(d *jx.Decoder) (promotion.Action, error) {
	var action promotion.Action

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeStr(d, &action.ID)
		case "kind":
			v, err := d.Str()
			action.Type = promotion.ActionType(v)
			return err
		case "calculator":
			calc, err := decodeCalculator(d)
			if err != nil {
				return err
			}
			action.Calculator = calc
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeBundleItem(d)
				if err != nil {
					return err
				}
				action.Items = append(action.Items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return promotion.Action{}, errors.Wrap(err, "decode action")
	}
	if action.Type == "" {
		return promotion.Action{}, errors.New("action kind is required")
	}
	return action, nil
}

func decodeCalculator(d *jx.Decoder) (promotion.Calculator, error) {
	var calc promotion.Calculator

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			v, err := d.Str()
			calc.Type = promotion.CalculatorType(v)
			return err
		case "amount":
			return decodeDecimal(d, &calc.Amount)
		case "percent":
			return decodeDecimal(d, &calc.Percent)
		case "product_ids":
			return decodeStrings(d, &calc.ProductIDs)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return promotion.Calculator{}, errors.Wrap(err, "decode calculator")
	}
	return calc, nil
}

func decodeBundleItem(d *jx.Decoder) (promotion.BundleItem, error) {
	var item promotion.BundleItem

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			return decodeStr(d, &item.ProductID)
		case "price":
			var price decimal.NullDecimal
			if err := decodeDecimal(d, &price); err != nil {
				return err
			}
			item.Price = price.Decimal
			return nil
		case "quantity":
			v, err := d.Int()
			item.Quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return promotion.BundleItem{}, errors.Wrap(err, "decode bundle item")
	}
	return item, nil
}

func decodeStr(d *jx.Decoder, dst *string) error {
	v, err := d.Str()
	*dst = v
	return err
}

func decodeStrings(d *jx.Decoder, dst *[]string) error {
	return d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = append(*dst, v)
		return nil
	})
}

// decodeDecimal accepts a JSON string or null.
func decodeDecimal(d *jx.Decoder, dst *decimal.NullDecimal) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	raw, err := d.Str()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrapf(err, "parse decimal %q", raw)
	}
	*dst = decimal.NewNullDecimal(v)
	return nil
}

// decodeTime accepts an RFC 3339 string or null.
func decodeTime(d *jx.Decoder, dst **time.Time) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	raw, err := d.Str()
	if err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return errors.Wrapf(err, "parse timestamp %q", raw)
	}
	*dst = &t
	return nil
}
