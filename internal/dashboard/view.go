package dashboard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/units"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// SkeletonCount is how many placeholder cards show while the count loads.
const SkeletonCount = 6

// PendingBanner is the body text of an ended, unresolved market.
const PendingBanner = "Pending resolution"

// BodyKind selects the card body.
type BodyKind string

const (
	BodyWizard   BodyKind = "wizard"
	BodyPending  BodyKind = "pending"
	BodyResolved BodyKind = "resolved"
)

// TabView is one rendered tab.
type TabView struct {
	Tab       domain.Tab `json:"tab"`
	Loading   bool       `json:"loading"`
	Skeletons int        `json:"skeletons,omitempty"`
	Cards     []CardView `json:"cards"`
}

// CardView is everything a front end needs to draw one card.
type CardView struct {
	ID       uint64        `json:"id"`
	Loading  bool          `json:"loading"`
	Question string        `json:"question,omitempty"`
	OptionA  string        `json:"option_a,omitempty"`
	OptionB  string        `json:"option_b,omitempty"`
	Phase    domain.Phase  `json:"phase,omitempty"`
	Badge    *units.Badge  `json:"badge,omitempty"`
	Progress *Progress     `json:"progress,omitempty"`
	Body     BodyKind      `json:"body,omitempty"`
	Winner   string        `json:"winner,omitempty"`
	Wizard   *wizard.State `json:"wizard,omitempty"`
	Shares   *SharesView   `json:"shares,omitempty"`
}

// Progress compares the two sides of a market.
type Progress struct {
	PercentA decimal.Decimal `json:"percent_a"`
	PercentB decimal.Decimal `json:"percent_b"`
	SharesA  string          `json:"shares_a"`
	SharesB  string          `json:"shares_b"`
}

// SharesView is the footer with the user's floored share counts.
type SharesView struct {
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	A       string `json:"a"`
	B       string `json:"b"`
}

// Lines renders the footer as two "Your <option>: n" lines.
func (s SharesView) Lines() (string, string) {
	return fmt.Sprintf("Your %s: %s", s.OptionA, s.A), fmt.Sprintf("Your %s: %s", s.OptionB, s.B)
}

// VoteLabel is the call-to-action for selecting an option.
func VoteLabel(option string) string {
	return "Vote " + option
}

// RateHint is the price hint shown on the amount step.
func RateHint(option string) string {
	return fmt.Sprintf("1 %s = 1 PREDICT", option)
}

// buildCard renders a loaded market. lc is computed once by the caller and
// drives both visibility and body selection.
func buildCard(m domain.Market, lc domain.Lifecycle, bal *domain.SharesBalance, w *wizard.Wizard, now time.Time, loc *time.Location) CardView {
	badge := units.NewBadge(m.End(), now, loc)
	pa, pb := units.Percentages(m.TotalOptionAShares, m.TotalOptionBShares)

	v := CardView{
		ID:       m.ID,
		Question: m.Question,
		OptionA:  m.OptionA,
		OptionB:  m.OptionB,
		Phase:    lc.Phase,
		Badge:    &badge,
		Progress: &Progress{
			PercentA: pa,
			PercentB: pb,
			SharesA:  units.FormatShares(m.TotalOptionAShares),
			SharesB:  units.FormatShares(m.TotalOptionBShares),
		},
	}

	switch lc.Phase {
	case domain.PhaseActive:
		v.Body = BodyWizard
		if w != nil {
			s := w.Snapshot()
			v.Wizard = &s
		}
	case domain.PhasePending:
		v.Body = BodyPending
	case domain.PhaseResolved:
		v.Body = BodyResolved
		v.Winner = lc.WinnerLabel(m)
	}

	if bal != nil {
		v.Shares = &SharesView{
			OptionA: m.OptionA,
			OptionB: m.OptionB,
			A:       units.FormatShares(bal.OptionAShares),
			B:       units.FormatShares(bal.OptionBShares),
		}
	}
	return v
}
