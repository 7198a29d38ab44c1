package domain

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the derived lifecycle phase of a market. It is never stored.
type Phase string

const (
	PhaseActive   Phase = "active"
	PhasePending  Phase = "pending"
	PhaseResolved Phase = "resolved"
)

// Tab is a dashboard tab filter. Every tab shows exactly the markets whose
// phase carries the same name.
type Tab = Phase

// ParseTab parses a tab name. The empty string selects the active tab.
func ParseTab(s string) (Tab, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case "", PhaseActive:
		return PhaseActive, nil
	case PhasePending:
		return PhasePending, nil
	case PhaseResolved:
		return PhaseResolved, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{PhaseActive, PhasePending, PhaseResolved}

// Lifecycle is the three-variant state of a market at one instant:
// Active, Pending, or Resolved carrying the winning outcome. Winner is
// OutcomeUnresolved for every phase except PhaseResolved.
type Lifecycle struct {
	Phase  Phase
	Winner Outcome
}

// Classify derives the lifecycle of m at now. The outcome field is read only
// when the market is both ended and resolved.
func Classify(m Market, now time.Time) Lifecycle {
	if now.Unix() < m.EndTime {
		return Lifecycle{Phase: PhaseActive}
	}
	if !m.Resolved {
		return Lifecycle{Phase: PhasePending}
	}
	return Lifecycle{Phase: PhaseResolved, Winner: m.Outcome}
}

// VisibleIn reports whether a market in this lifecycle belongs to tab.
func (l Lifecycle) VisibleIn(tab Tab) bool {
	return l.Phase == tab
}

// WinnerLabel returns the label of the winning option, or "" when the
// market is not resolved or the outcome code is not A or B.
func (l Lifecycle) WinnerLabel(m Market) string {
	if l.Phase != PhaseResolved {
		return ""
	}
	switch l.Winner {
	case OutcomeOptionA:
		return m.OptionA
	case OutcomeOptionB:
		return m.OptionB
	default:
		return ""
	}
}
