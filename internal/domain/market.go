package domain

import (
	"math/big"
	"time"
)

// Outcome is the on-chain outcome code of a market. It is only meaningful
// once the market is resolved.
type Outcome uint8

const (
	OutcomeUnresolved Outcome = 0
	OutcomeOptionA    Outcome = 1
	OutcomeOptionB    Outcome = 2
)

// Market is the decoded projection of getMarket(id). Share totals are in
// token base units (1e18 per share).
type Market struct {
	ID                 uint64   `json:"id"`
	Question           string   `json:"question"`
	OptionA            string   `json:"option_a"`
	OptionB            string   `json:"option_b"`
	EndTime            int64    `json:"end_time"`
	Outcome            Outcome  `json:"outcome"`
	TotalOptionAShares *big.Int `json:"total_option_a_shares"`
	TotalOptionBShares *big.Int `json:"total_option_b_shares"`
	Resolved           bool     `json:"resolved"`
}

// End returns EndTime as a time.Time.
func (m Market) End() time.Time {
	return time.Unix(m.EndTime, 0)
}

// OptionLabel returns the label for the given option.
func (m Market) OptionLabel(o Option) string {
	switch o {
	case OptionA:
		return m.OptionA
	case OptionB:
		return m.OptionB
	default:
		return ""
	}
}

// SharesBalance is the decoded projection of getSharesBalance(id, user).
type SharesBalance struct {
	OptionAShares *big.Int `json:"option_a_shares"`
	OptionBShares *big.Int `json:"option_b_shares"`
}

// ZeroBalance returns a balance with both sides set to zero.
func ZeroBalance() SharesBalance {
	return SharesBalance{OptionAShares: new(big.Int), OptionBShares: new(big.Int)}
}

// Option identifies one side of a binary market.
type Option string

const (
	OptionNone Option = ""
	OptionA    Option = "A"
	OptionB    Option = "B"
)

// Valid reports whether o is A or B.
func (o Option) Valid() bool {
	return o == OptionA || o == OptionB
}

// IsOptionA is the boolean flag buyShares expects.
func (o Option) IsOptionA() bool {
	return o == OptionA
}
