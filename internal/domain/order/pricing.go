package order

import "github.com/shopspring/decimal"

// TestCoupon is the reserved coupon code that collapses the payable amount to
// one rupee and routes the shopper straight to the success confirmation.
const TestCoupon = "TESTADI"

var (
	// ReferencePrice is the fallback original price used when the test
	// coupon is applied to an amount that is already discounted to 1.
	ReferencePrice = decimal.NewFromInt(2499)

	// CODCharge is the flat cash-on-delivery surcharge in rupees.
	CODCharge = decimal.NewFromInt(59)

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Quote is the computed pricing breakdown for one checkout.
type Quote struct {
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	CODCharges     decimal.Decimal
}

// Price computes the payable amount for a checkout. base is the price the
// buyer was quoted (already net of any percentage discount the client chose),
// couponCode is optional, discountPercent is the percentage the client
// already applied, and method selects the COD surcharge.
//
// The test coupon forces the final amount to 1 regardless of the computed
// discount. A positive discountPercent below 100 back-computes the original
// amount from the discounted base; 100 or more has no finite original, so it
// degrades to passthrough rather than erroring. Amounts are rounded to whole
// rupees.
func Price(base decimal.Decimal, couponCode string, discountPercent decimal.Decimal, method Method) Quote {
	var q Quote

	switch {
	case couponCode == TestCoupon:
		q.FinalAmount = one
		if base.GreaterThan(one) {
			q.OriginalAmount = base
		} else {
			q.OriginalAmount = ReferencePrice
		}
		q.DiscountAmount = q.OriginalAmount.Sub(one)

	case discountPercent.IsPositive() && discountPercent.LessThan(hundred):
		factor := one.Sub(discountPercent.Div(hundred))
		q.OriginalAmount = base.Div(factor).Round(0)
		q.DiscountAmount = q.OriginalAmount.Sub(base)
		q.FinalAmount = base

	default:
		q.OriginalAmount = base
		q.FinalAmount = base
		q.DiscountAmount = decimal.Zero
	}

	if method == MethodCOD {
		q.CODCharges = CODCharge
		q.FinalAmount = q.FinalAmount.Add(CODCharge)
	}

	return q
}
