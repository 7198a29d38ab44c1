package units

import (
	"fmt"
	"time"
)

// UrgentWindow is how close to its end a market is flagged as ending soon.
const UrgentWindow = 24 * time.Hour

// DateLayout is the short US date used on market badges.
const DateLayout = "Jan 2, 2006"

// FormatTimeRemaining renders the time left until end as "Xd Yh", "Xh Ym" or
// "Xm", or "Ended" once end has passed.
func FormatTimeRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "Ended"
	}
	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatDate renders end in DateLayout using the given location, or UTC when
// loc is nil.
func FormatDate(end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return end.In(loc).Format(DateLayout)
}

// Badge is the time status shown at the top of a market card.
type Badge struct {
	Label     string `json:"label"`
	Date      string `json:"date"`
	Remaining string `json:"remaining,omitempty"`
	Ended     bool   `json:"ended"`
	Urgent    bool   `json:"urgent"`
}

// NewBadge builds the badge for a market ending at end, as seen at now.
func NewBadge(end, now time.Time, loc *time.Location) Badge {
	b := Badge{Date: FormatDate(end, loc)}
	b.Ended = !now.Before(end)
	b.Urgent = !b.Ended && end.Sub(now) < UrgentWindow
	switch {
	case b.Ended:
		b.Label = "Ended"
	case b.Urgent:
		b.Label = "Ends Soon"
	default:
		b.Label = "Ends"
	}
	if !b.Ended {
		b.Remaining = FormatTimeRemaining(end, now)
	}
	return b
}

// String renders the badge as one line, e.g. "Ends Soon: Jan 2, 2006 (3h 12m)".
func (b Badge) String() string {
	if b.Remaining == "" {
		return fmt.Sprintf("%s: %s", b.Label, b.Date)
	}
	return fmt.Sprintf("%s: %s (%s)", b.Label, b.Date, b.Remaining)
}
