package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/promotion"
)

const (
	listPromotionsSQL = `SELECT id, name, code, event, starts_at, expires_at, advertise, usage_limit, uses
		FROM promotions ORDER BY id`

	listRulesSQL = `SELECT id, promotion_id, kind, preferences
		FROM promotion_rules ORDER BY promotion_id, id`

	listActionsSQL = `SELECT id, promotion_id, kind, preferences
		FROM promotion_actions ORDER BY promotion_id, id`

	upsertPromotionSQL = `INSERT INTO promotions (id, name, code, event, starts_at, expires_at, advertise, usage_limit, uses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, code = EXCLUDED.code, event = EXCLUDED.event,
			starts_at = EXCLUDED.starts_at, expires_at = EXCLUDED.expires_at,
			advertise = EXCLUDED.advertise, usage_limit = EXCLUDED.usage_limit`

	deleteRulesSQL   = `DELETE FROM promotion_rules WHERE promotion_id = $1`
	deleteActionsSQL = `DELETE FROM promotion_actions WHERE promotion_id = $1`

	insertRuleSQL = `INSERT INTO promotion_rules (id, promotion_id, kind, preferences)
		VALUES ($1, $2, $3, $4)`

	insertActionSQL = `INSERT INTO promotion_actions (id, promotion_id, kind, preferences)
		VALUES ($1, $2, $3, $4)`

	recordUseSQL = `UPDATE promotions SET uses = uses + 1 WHERE id = $1`
)

// PromotionStore persists promotion definitions, their rules and actions.
// Rule and action preference payloads live in JSONB columns.
type PromotionStore struct {
	pool *pgxpool.Pool
}

// NewPromotionStore returns a PromotionStore that uses the given pool.
func NewPromotionStore(pool *pgxpool.Pool) *PromotionStore {
	return &PromotionStore{pool: pool}
}

// rulePrefs is the JSONB payload of one promotion rule.
type rulePrefs struct {
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	ProductIDs []string         `json:"product_ids,omitempty"`
	Path       string           `json:"path,omitempty"`
}

// calculatorPrefs is the embedded calculator of a create-adjustment action.
type calculatorPrefs struct {
	Type       string           `json:"type"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percent    *decimal.Decimal `json:"percent,omitempty"`
	ProductIDs []string         `json:"product_ids,omitempty"`
}

// bundleItemPrefs is one line a create-line-items action adds.
type bundleItemPrefs struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// actionPrefs is the JSONB payload of one promotion action.
type actionPrefs struct {
	Calculator *calculatorPrefs  `json:"calculator,omitempty"`
	Items      []bundleItemPrefs `json:"items,omitempty"`
}

// ListAll loads every promotion with its rules and actions.
func (s *PromotionStore) ListAll(ctx context.Context) ([]*promotion.Promotion, error) {
	rows, err := s.pool.Query(ctx, listPromotionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	promos, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}

	byID := make(map[string]*promotion.Promotion, len(promos))
	out := make([]*promotion.Promotion, len(promos))
	for i := range promos {
		byID[promos[i].ID] = promos[i]
		out[i] = promos[i]
	}

	if err := s.attachRules(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachActions(ctx, byID); err != nil {
		return nil, err
	}

	return out, nil
}

// RecordUse counts one completed-order use against the promotion.
func (s *PromotionStore) RecordUse(ctx context.Context, promotionID string) error {
	_, err := s.pool.Exec(ctx, recordUseSQL, promotionID)
	if err != nil {
		return fmt.Errorf("recording use for promotion %q: %w", promotionID, err)
	}
	return nil
}

// Upsert writes a promotion definition, replacing its rules and actions,
// inside one transaction.
func (s *PromotionStore) Upsert(ctx context.Context, p *promotion.Promotion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning upsert for promotion %q: %w", p.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, upsertPromotionSQL,
		p.ID, p.Name, p.Code, string(p.Event),
		p.StartsAt, p.ExpiresAt, p.Advertise, p.UsageLimit, p.Uses,
	)
	if err != nil {
		return fmt.Errorf("upserting promotion %q: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, deleteRulesSQL, p.ID); err != nil {
		return fmt.Errorf("clearing rules for promotion %q: %w", p.ID, err)
	}
	if _, err := tx.Exec(ctx, deleteActionsSQL, p.ID); err != nil {
		return fmt.Errorf("clearing actions for promotion %q: %w", p.ID, err)
	}

	for i, r := range p.Rules {
		prefs, kind := marshalRule(r)
		payload, err := json.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("marshaling rule prefs for promotion %q: %w", p.ID, err)
		}
		ruleID := fmt.Sprintf("%s-rule-%d", p.ID, i)
		if _, err := tx.Exec(ctx, insertRuleSQL, ruleID, p.ID, string(kind), payload); err != nil {
			return fmt.Errorf("inserting rule for promotion %q: %w", p.ID, err)
		}
	}

	for i, a := range p.Actions {
		payload, err := json.Marshal(marshalAction(a))
		if err != nil {
			return fmt.Errorf("marshaling action prefs for promotion %q: %w", p.ID, err)
		}
		actionID := a.ID
		if actionID == "" {
			actionID = fmt.Sprintf("%s-action-%d", p.ID, i)
		}
		if _, err := tx.Exec(ctx, insertActionSQL, actionID, p.ID, string(a.Type), payload); err != nil {
			return fmt.Errorf("inserting action for promotion %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert for promotion %q: %w", p.ID, err)
	}
	return nil
}

func (s *PromotionStore) attachRules(ctx context.Context, byID map[string]*promotion.Promotion) error {
	rows, err := s.pool.Query(ctx, listRulesSQL)
	if err != nil {
		return fmt.Errorf("listing promotion rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, promoID, kind string
			payload           []byte
		)
		if err := rows.Scan(&id, &promoID, &kind, &payload); err != nil {
			return fmt.Errorf("scanning promotion rule: %w", err)
		}
		p, ok := byID[promoID]
		if !ok {
			continue
		}
		rule, err := unmarshalRule(promotion.RuleKind(kind), payload)
		if err != nil {
			return errors.Wrapf(err, "rule %s", id)
		}
		p.Rules = append(p.Rules, rule)
	}
	return rows.Err()
}

func (s *PromotionStore) attachActions(ctx context.Context, byID map[string]*promotion.Promotion) error {
	rows, err := s.pool.Query(ctx, listActionsSQL)
	if err != nil {
		return fmt.Errorf("listing promotion actions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, promoID, kind string
			payload           []byte
		)
		if err := rows.Scan(&id, &promoID, &kind, &payload); err != nil {
			return fmt.Errorf("scanning promotion action: %w", err)
		}
		p, ok := byID[promoID]
		if !ok {
			continue
		}
		action, err := unmarshalAction(id, promotion.ActionType(kind), payload)
		if err != nil {
			return errors.Wrapf(err, "action %s", id)
		}
		p.Actions = append(p.Actions, action)
	}
	return rows.Err()
}

func scanPromotion(row pgx.CollectableRow) (*promotion.Promotion, error) {
	var (
		p                 promotion.Promotion
		event             string
		startsAt, expires *time.Time
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &event,
		&startsAt, &expires, &p.Advertise, &p.UsageLimit, &p.Uses,
	)
	p.Event = promotion.Event(event)
	p.StartsAt = startsAt
	p.ExpiresAt = expires
	return &p, err
}

func marshalRule(r promotion.Rule) (rulePrefs, promotion.RuleKind) {
	var prefs rulePrefs
	switch rule := r.(type) {
	case *promotion.ItemTotalRule:
		if rule.Amount.Valid {
			amount := rule.Amount.Decimal
			prefs.Amount = &amount
		}
	case *promotion.ProductRule:
		prefs.ProductIDs = rule.ProductIDs
	case *promotion.LandingPageRule:
		prefs.Path = rule.Path
	}
	return prefs, r.Kind()
}

func unmarshalRule(kind promotion.RuleKind, payload []byte) (promotion.Rule, error) {
	var prefs rulePrefs
	if err := json.Unmarshal(payload, &prefs); err != nil {
		return nil, errors.Wrap(err, "decode rule preferences")
	}

	switch kind {
	case promotion.RuleItemTotal:
		rule := &promotion.ItemTotalRule{}
		if prefs.Amount != nil {
			rule.Amount = decimal.NewNullDecimal(*prefs.Amount)
		}
		return rule, nil
	case promotion.RuleProduct:
		return &promotion.ProductRule{ProductIDs: prefs.ProductIDs}, nil
	case promotion.RuleFirstOrder:
		return &promotion.FirstOrderRule{}, nil
	case promotion.RuleUserLoggedIn:
		return &promotion.UserLoggedInRule{}, nil
	case promotion.RuleLandingPage:
		return &promotion.LandingPageRule{Path: prefs.Path}, nil
	default:
		return nil, errors.Errorf("unknown rule kind %q", kind)
	}
}

func marshalAction(a promotion.Action) actionPrefs {
	var prefs actionPrefs
	switch a.Type {
	case promotion.ActionCreateAdjustment:
		calc := calculatorPrefs{
			Type:       string(a.Calculator.Type),
			ProductIDs: a.Calculator.ProductIDs,
		}
		if a.Calculator.Amount.Valid {
			amount := a.Calculator.Amount.Decimal
			calc.Amount = &amount
		}
		if a.Calculator.Percent.Valid {
			percent := a.Calculator.Percent.Decimal
			calc.Percent = &percent
		}
		prefs.Calculator = &calc
	case promotion.ActionCreateLineItems:
		for _, item := range a.Items {
			prefs.Items = append(prefs.Items, bundleItemPrefs{
				ProductID: item.ProductID,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}
	}
	return prefs
}

func unmarshalAction(id string, kind promotion.ActionType, payload []byte) (promotion.Action, error) {
	var prefs actionPrefs
	if err := json.Unmarshal(payload, &prefs); err != nil {
		return promotion.Action{}, errors.Wrap(err, "decode action preferences")
	}

	action := promotion.Action{ID: id, Type: kind}
	switch kind {
	case promotion.ActionCreateAdjustment:
		if prefs.Calculator == nil {
			// Misconfigured action: keep it, the zero calculator computes zero.
			return action, nil
		}
		action.Calculator = promotion.Calculator{
			Type:       promotion.CalculatorType(prefs.Calculator.Type),
			ProductIDs: prefs.Calculator.ProductIDs,
		}
		if prefs.Calculator.Amount != nil {
			action.Calculator.Amount = decimal.NewNullDecimal(*prefs.Calculator.Amount)
		}
		if prefs.Calculator.Percent != nil {
			action.Calculator.Percent = decimal.NewNullDecimal(*prefs.Calculator.Percent)
		}
	case promotion.ActionCreateLineItems:
		for _, item := range prefs.Items {
			action.Items = append(action.Items, promotion.BundleItem{
				ProductID: item.ProductID,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}
	default:
		return promotion.Action{}, errors.Errorf("unknown action kind %q", kind)
	}
	return action, nil
}
