package chain

import (
	"fmt"
	"math/big"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// maxInt64 bounds endTime so it fits a unix timestamp.
var maxInt64 = big.NewInt(1<<63 - 1)

func decodeErr(method, format string, args ...any) error {
	return fmt.Errorf("chain: %s: %w: %s", method, domain.ErrDecode, fmt.Sprintf(format, args...))
}

func want[T any](method string, vals []any, i int, field string) (T, error) {
	var zero T
	if i >= len(vals) {
		return zero, decodeErr(method, "missing field %s", field)
	}
	v, ok := vals[i].(T)
	if !ok {
		return zero, decodeErr(method, "field %s has type %T, want %T", field, vals[i], zero)
	}
	return v, nil
}

func checkArity(method string, vals []any, n int) error {
	if len(vals) != n {
		return decodeErr(method, "got %d values, want %d", len(vals), n)
	}
	return nil
}

func nonNegative(method, field string, v *big.Int) error {
	if v == nil {
		return decodeErr(method, "field %s is nil", field)
	}
	if v.Sign() < 0 {
		return decodeErr(method, "field %s is negative", field)
	}
	return nil
}

// decodeUint decodes a single uint256 return value.
func decodeUint(method string, vals []any) (*big.Int, error) {
	if err := checkArity(method, vals, 1); err != nil {
		return nil, err
	}
	v, err := want[*big.Int](method, vals, 0, "value")
	if err != nil {
		return nil, err
	}
	if err := nonNegative(method, "value", v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeCount decodes marketCount into a uint64.
func decodeCount(vals []any) (uint64, error) {
	v, err := decodeUint(methodMarketCount, vals)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, decodeErr(methodMarketCount, "count %s overflows uint64", v)
	}
	return v.Uint64(), nil
}

// decodeMarket names the positional getMarket tuple
// (question, endTime, outcome, optionA, optionB, totalA, totalB, resolved).
func decodeMarket(id uint64, vals []any) (domain.Market, error) {
	const m = methodGetMarket
	if err := checkArity(m, vals, 8); err != nil {
		return domain.Market{}, err
	}

	question, err := want[string](m, vals, 0, "question")
	if err != nil {
		return domain.Market{}, err
	}
	endTime, err := want[*big.Int](m, vals, 1, "endTime")
	if err != nil {
		return domain.Market{}, err
	}
	if err := nonNegative(m, "endTime", endTime); err != nil {
		return domain.Market{}, err
	}
	if endTime.Cmp(maxInt64) > 0 {
		return domain.Market{}, decodeErr(m, "endTime %s out of range", endTime)
	}
	outcome, err := want[uint8](m, vals, 2, "outcome")
	if err != nil {
		return domain.Market{}, err
	}
	if outcome > uint8(domain.OutcomeOptionB) {
		return domain.Market{}, decodeErr(m, "unknown outcome code %d", outcome)
	}
	optionA, err := want[string](m, vals, 3, "optionA")
	if err != nil {
		return domain.Market{}, err
	}
	optionB, err := want[string](m, vals, 4, "optionB")
	if err != nil {
		return domain.Market{}, err
	}
	totalA, err := want[*big.Int](m, vals, 5, "totalOptionAShares")
	if err != nil {
		return domain.Market{}, err
	}
	if err := nonNegative(m, "totalOptionAShares", totalA); err != nil {
		return domain.Market{}, err
	}
	totalB, err := want[*big.Int](m, vals, 6, "totalOptionBShares")
	if err != nil {
		return domain.Market{}, err
	}
	if err := nonNegative(m, "totalOptionBShares", totalB); err != nil {
		return domain.Market{}, err
	}
	resolved, err := want[bool](m, vals, 7, "resolved")
	if err != nil {
		return domain.Market{}, err
	}

	return domain.Market{
		ID:                 id,
		Question:           question,
		OptionA:            optionA,
		OptionB:            optionB,
		EndTime:            endTime.Int64(),
		Outcome:            domain.Outcome(outcome),
		TotalOptionAShares: totalA,
		TotalOptionBShares: totalB,
		Resolved:           resolved,
	}, nil
}

// decodeShares names the getSharesBalance tuple (optionAShares, optionBShares).
func decodeShares(vals []any) (domain.SharesBalance, error) {
	const m = methodGetSharesBalance
	if err := checkArity(m, vals, 2); err != nil {
		return domain.SharesBalance{}, err
	}
	a, err := want[*big.Int](m, vals, 0, "optionAShares")
	if err != nil {
		return domain.SharesBalance{}, err
	}
	if err := nonNegative(m, "optionAShares", a); err != nil {
		return domain.SharesBalance{}, err
	}
	b, err := want[*big.Int](m, vals, 1, "optionBShares")
	if err != nil {
		return domain.SharesBalance{}, err
	}
	if err := nonNegative(m, "optionBShares", b); err != nil {
		return domain.SharesBalance{}, err
	}
	return domain.SharesBalance{OptionAShares: a, OptionBShares: b}, nil
}
