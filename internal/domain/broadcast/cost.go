package broadcast

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CostBasis selects which recipient count a broadcast is charged for.
type CostBasis string

const (
	CostBasisAttempted CostBasis = "attempted"
	CostBasisSent      CostBasis = "sent"
)

// DefaultRate is €0.016 per message at a fixed 11.5 EUR→NOK rate.
var DefaultRate = decimal.RequireFromString("0.016").Mul(decimal.RequireFromString("11.5"))

type CostPolicy struct {
	Rate     decimal.Decimal
	Currency string
	Basis    CostBasis
}

func NewCostPolicy(rate decimal.Decimal, currency, basis string) (CostPolicy, error) {
	if rate.IsNegative() {
		return CostPolicy{}, fmt.Errorf("cost rate must not be negative")
	}

	b := CostBasis(strings.ToLower(strings.TrimSpace(basis)))
	switch b {
	case "":
		b = CostBasisAttempted
	case CostBasisAttempted, CostBasisSent:
	default:
		return CostPolicy{}, fmt.Errorf("unknown cost basis %q", basis)
	}

	if currency == "" {
		currency = "NOK"
	}
	return CostPolicy{Rate: rate, Currency: strings.ToUpper(currency), Basis: b}, nil
}

// Estimate returns the total cost rounded to two decimals.
func (p CostPolicy) Estimate(attempted, sent int) decimal.Decimal {
	n := attempted
	if p.Basis == CostBasisSent {
		n = sent
	}
	return p.Rate.Mul(decimal.NewFromInt(int64(n))).Round(2)
}

func (p CostPolicy) Format(total decimal.Decimal) string {
	return total.StringFixed(2) + " " + p.Currency
}
