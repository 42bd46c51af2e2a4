package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

// IneligibleError carries the single ineligibility reason produced by an
// evaluation. It is a validation outcome rather than a failure: handlers
// render it as a 422 with the reason, not a 500.
type IneligibleError struct {
	Reason IneligibilityReason
}

func (e *IneligibleError) Error() string {
	return e.Reason.Message()
}

// Validator validates a coupon code against a cart snapshot and returns the
// computed discount.
type Validator interface {
	// Validate runs the full eligibility evaluation and, when it passes,
	// applies the rule. An ineligible result is returned as *IneligibleError.
	Validate(ctx context.Context, code string, items []pricing.LineItem) (*Applied, error)
	// Recompute applies an already-accepted code to the current cart without
	// re-running eligibility. Cart edits after a coupon is applied do not
	// re-validate it; only an explicit apply does.
	Recompute(ctx context.Context, code string, items []pricing.LineItem) (*Applied, error)
}

// RepoValidator implements Validator by looking up rules from a Repository.
type RepoValidator struct {
	repo  Repository
	promo PromoOverrides
	now   func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository, promo PromoOverrides) *RepoValidator {
	return &RepoValidator{repo: repo, promo: promo, now: time.Now}
}

// Validate looks up the rule for code, evaluates eligibility against the
// cart, and applies the discount when eligible.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []pricing.LineItem) (*Applied, error) {
	rule, err := v.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	res := Evaluate(rule, items, pricing.Subtotal(items), v.now(), v.promo)
	if !res.Eligible {
		return nil, &IneligibleError{Reason: res.Reason}
	}

	applied, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// Recompute applies the rule for code to the current cart snapshot, skipping
// eligibility. A code that has vanished from the directory since it was
// applied reports NotFound.
func (v *RepoValidator) Recompute(ctx context.Context, code string, items []pricing.LineItem) (*Applied, error) {
	rule, err := v.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, &IneligibleError{Reason: ReasonNotFound}
	}

	applied, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// lookup resolves code to a rule. A missing code yields a nil rule rather
// than an error so Evaluate can order it after the combo-offer check.
func (v *RepoValidator) lookup(ctx context.Context, code string) (*Rule, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return rule, nil
}
