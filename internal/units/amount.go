// Package units converts between 1e18-scaled on-chain integers and the human
// decimals shown to users, and formats market times for display.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places of the share and token units.
const Decimals = 18

var (
	scale   = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
	hundred = decimal.NewFromInt(100)
)

// ValidationError is an amount problem shown to the user verbatim.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrNotPositive  ValidationError = "Amount must be greater than 0"
	ErrNotWhole     ValidationError = "Amount must be a whole number of shares"
	ErrBadAmount    ValidationError = "Amount must be a number"
	ErrAmountTooBig ValidationError = "Amount is too large"
)

// maxWholeDigits bounds user input so ToBaseUnits stays well inside uint256.
const maxWholeDigits = 30

// ParseAmount parses user text into a non-negative decimal. Negative input
// clamps to zero. Empty input is zero. Exponent notation is not a number
// here: the amount field only takes digits and a decimal point.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrBadAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrBadAmount
	}
	if d.IsNegative() {
		return decimal.Zero, nil
	}
	// Whole digits from the coefficient length and exponent, without
	// rescaling the value.
	if d.NumDigits()+int(d.Exponent()) > maxWholeDigits {
		return decimal.Zero, ErrAmountTooBig
	}
	return d, nil
}

// ValidatePurchase checks that d is a positive whole number of shares.
func ValidatePurchase(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNotPositive
	}
	if !d.Equal(d.Truncate(0)) {
		return ErrNotWhole
	}
	return nil
}

// ToBaseUnits scales a human decimal to base units, truncating anything
// below one base unit.
func ToBaseUnits(d decimal.Decimal) *big.Int {
	return d.Shift(Decimals).BigInt()
}

// FromBaseUnits converts a base-unit integer to its exact human decimal.
func FromBaseUnits(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -Decimals)
}

// FloorShares returns the whole-unit floor of a base-unit balance. A balance
// worth 3.9999 shares yields 3.
func FloorShares(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	q, m := new(big.Int).QuoRem(v, scale, new(big.Int))
	if v.Sign() < 0 && m.Sign() != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

// FormatShares renders FloorShares as a decimal string.
func FormatShares(v *big.Int) string {
	return FloorShares(v).String()
}

// Percentages returns each side's share of the combined total as a percentage
// rounded to one decimal place. Both are zero when nothing has been bought.
func Percentages(a, b *big.Int) (decimal.Decimal, decimal.Decimal) {
	da, db := FromBaseUnits(a), FromBaseUnits(b)
	total := da.Add(db)
	if !total.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	pa := da.Div(total).Mul(hundred).Round(1)
	return pa, hundred.Sub(pa)
}

// FormatPercent renders a percentage for display, e.g. "62.5%".
func FormatPercent(p decimal.Decimal) string {
	return fmt.Sprintf("%s%%", p.StringFixed(1))
}
