package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, value, min_purchase, max_purchase,
		max_discount, expires_at, usage_limit, uses, active, description
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	listRedeemableCouponsSQL = `SELECT code, discount_type, value, min_purchase, max_purchase,
		max_discount, expires_at, usage_limit, uses, active, description
		FROM coupons
		WHERE active = TRUE AND expires_at > $1 AND (usage_limit = 0 OR uses < usage_limit)
		ORDER BY code`

	incrementCouponUsesSQL = `UPDATE coupons SET uses = uses + 1 WHERE UPPER(code) = UPPER($1)`

	upsertCouponSQL = `INSERT INTO coupons
		(code, discount_type, value, min_purchase, max_purchase, max_discount,
		 expires_at, usage_limit, uses, active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_purchase = EXCLUDED.min_purchase,
			max_purchase = EXCLUDED.max_purchase,
			max_discount = EXCLUDED.max_discount,
			expires_at = EXCLUDED.expires_at,
			usage_limit = EXCLUDED.usage_limit,
			active = EXCLUDED.active,
			description = EXCLUDED.description`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCouponRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &rule, nil
}

// ListRedeemable returns all coupons passing the directory pre-filter:
// active, unexpired, and not exhausted as of now.
func (r *CouponRepository) ListRedeemable(ctx context.Context, now time.Time) ([]coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, listRedeemableCouponsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing redeemable coupons: %w", err)
	}

	rules, err := pgx.CollectRows(rows, scanCouponRule)
	if err != nil {
		return nil, fmt.Errorf("listing redeemable coupons: %w", err)
	}
	return rules, nil
}

// IncrementUses atomically increments the usage counter for the given code.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code)
	if err != nil {
		return fmt.Errorf("incrementing uses for coupon %q: %w", code, err)
	}
	return nil
}

// Upsert inserts or replaces a coupon rule. Used by the seeding and ingest
// tools; the usage counter is reset only on insert.
func (r *CouponRepository) Upsert(ctx context.Context, rule coupon.Rule) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		rule.Code, string(rule.DiscountType), rule.Value,
		rule.MinPurchase, rule.MaxPurchase, rule.MaxDiscount,
		rule.ExpiresAt, rule.UsageLimit, rule.Active, rule.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", rule.Code, err)
	}
	return nil
}

func scanCouponRule(row pgx.CollectableRow) (coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
		value        decimal.Decimal
		minPurchase  decimal.Decimal
		maxPurchase  decimal.Decimal
		maxDiscount  decimal.Decimal
		usageLimit   int32
		uses         int32
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &minPurchase, &maxPurchase,
		&maxDiscount, &rule.ExpiresAt, &usageLimit, &uses, &rule.Active, &rule.Description,
	)
	rule.DiscountType = coupon.DiscountType(discountType)
	rule.Value = value
	rule.MinPurchase = minPurchase
	rule.MaxPurchase = maxPurchase
	rule.MaxDiscount = maxDiscount
	rule.UsageLimit = int(usageLimit)
	rule.Uses = int(uses)
	return rule, err
}
