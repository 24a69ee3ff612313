// Package pricing turns graded weights into a payment breakdown. It is a
// pure calculation: the caller supplies the base reference price and the
// result embeds it, so a record computed today reads the same forever no
// matter how the BRP moves later.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
)

// Grade multipliers are a locked system:
// A fresh goods at full value, B soft goods for processing, C feed or
// compost, D unripe goods held back for deferred settlement.
var (
	MultiplierA = decimal.NewFromInt(1)
	MultiplierB = decimal.RequireFromString("0.6")
	MultiplierC = decimal.RequireFromString("0.2")
	MultiplierD = decimal.Zero
)

type Weights struct {
	A decimal.Decimal
	B decimal.Decimal
	C decimal.Decimal
	D decimal.Decimal
}

type Line struct {
	Weight     decimal.Decimal `json:"weight"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Amount     decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	GradeA Line `json:"gradeA"`
	GradeB Line `json:"gradeB"`
	GradeC Line `json:"gradeC"`
	GradeD Line `json:"gradeD"`

	// TotalWeight covers all four grades; TotalAmount excludes grade D.
	TotalWeight decimal.Decimal `json:"totalWeight"`
	TotalAmount decimal.Decimal `json:"totalAmount"`

	BaseReferencePrice decimal.Decimal `json:"baseReferencePrice"`
}

// Compute prices each grade independently as weight x basePrice x
// multiplier. At least one weight must be positive and none may be
// negative.
func Compute(w Weights, basePrice decimal.Decimal) (Breakdown, error) {
	if basePrice.Sign() <= 0 {
		return Breakdown{}, domain.Validation("base reference price must be positive")
	}
	for _, weight := range []decimal.Decimal{w.A, w.B, w.C, w.D} {
		if weight.Sign() < 0 {
			return Breakdown{}, domain.Validation("grade weights must not be negative")
		}
	}

	totalWeight := w.A.Add(w.B).Add(w.C).Add(w.D)
	if totalWeight.Sign() == 0 {
		return Breakdown{}, domain.Validation("at least one grade must have a weight")
	}

	line := func(weight, multiplier decimal.Decimal) Line {
		return Line{
			Weight:     weight,
			Multiplier: multiplier,
			Amount:     weight.Mul(basePrice).Mul(multiplier),
		}
	}

	b := Breakdown{
		GradeA:             line(w.A, MultiplierA),
		GradeB:             line(w.B, MultiplierB),
		GradeC:             line(w.C, MultiplierC),
		GradeD:             line(w.D, MultiplierD),
		TotalWeight:        totalWeight,
		BaseReferencePrice: basePrice,
	}
	b.TotalAmount = b.GradeA.Amount.Add(b.GradeB.Amount).Add(b.GradeC.Amount)
	return b, nil
}

// Multipliers returns the locked multiplier table keyed by grade letter.
func Multipliers() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"A": MultiplierA,
		"B": MultiplierB,
		"C": MultiplierC,
		"D": MultiplierD,
	}
}
