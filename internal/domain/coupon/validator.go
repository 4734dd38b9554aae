package coupon

import (
	"context"

	"github.com/go-faster/errors"
)

// Validator checks whether a coupon code may be redeemed and records the use.
type Validator interface {
	Redeem(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator against a Repository.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Redeem looks up the coupon, checks its status and usage limit, and
// increments the usage counter on success.
func (v *RepoValidator) Redeem(ctx context.Context, code string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if c.Status != StatusActive {
		return nil, ErrInactive
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if err := v.repo.IncrementUses(ctx, code); err != nil {
		return nil, errors.Wrap(err, "increment coupon uses")
	}

	return c, nil
}
