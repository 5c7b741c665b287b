package split

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Portion is one recipient's slice of an allocation.
type Portion struct {
	Key   string // Recipient identifier, used for deterministic remainder order
	Ratio decimal.Decimal
}

// Allocate divides totalCents across the portions so the results sum to
// exactly totalCents. Each portion first receives floor(totalCents * ratio);
// the leftover cents are then handed out one at a time in ascending Key
// order, skipping zero-ratio portions. Portions must already be sorted by
// Key by the caller, which also fixes the output order.
//
// The ratios are the frozen snapshot taken at segment creation; they sum to 1
// within decimal division tolerance, so the leftover is at most a few cents.
func Allocate(totalCents int64, portions []Portion) ([]int64, error) {
	if totalCents < 0 {
		return nil, fmt.Errorf("total must be non-negative, got %d", totalCents)
	}
	if len(portions) == 0 {
		return nil, fmt.Errorf("no portions to allocate to")
	}

	total := decimal.NewFromInt(totalCents)
	shares := make([]int64, len(portions))
	var allocated int64
	for i, p := range portions {
		if p.Ratio.IsNegative() {
			return nil, fmt.Errorf("negative ratio %s for %s", p.Ratio, p.Key)
		}
		shares[i] = total.Mul(p.Ratio).Floor().IntPart()
		allocated += shares[i]
	}

	remainder := totalCents - allocated
	if remainder < 0 {
		// Ratios summed above 1; refuse rather than overpay.
		return nil, fmt.Errorf("ratios over-allocate: %d cents over %d", allocated, totalCents)
	}

	for remainder > 0 {
		progressed := false
		for i := range portions {
			if remainder == 0 {
				break
			}
			if portions[i].Ratio.IsZero() {
				continue
			}
			shares[i]++
			remainder--
			progressed = true
		}
		if !progressed {
			// Every ratio is zero; nobody can absorb the remainder.
			return nil, fmt.Errorf("cannot place %d remainder cents, all ratios zero", remainder)
		}
	}

	return shares, nil
}

// Equal divides totalCents into n near-equal shares summing to exactly
// totalCents. Earlier indexes absorb the remainder, one cent each.
func Equal(totalCents int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split across %d recipients", n)
	}
	if totalCents < 0 {
		return nil, fmt.Errorf("total must be non-negative, got %d", totalCents)
	}
	base := totalCents / int64(n)
	remainder := totalCents % int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// Percent returns floor(amountCents * basisPoints / 10000). Rule percentages
// are basis points so this stays in integer arithmetic.
func Percent(amountCents int64, basisPoints int32) int64 {
	if amountCents <= 0 || basisPoints <= 0 {
		return 0
	}
	return amountCents * int64(basisPoints) / 10000
}
