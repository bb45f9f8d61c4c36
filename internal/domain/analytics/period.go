package analytics

import (
	"fmt"
	"time"
)

// DateRange is a half-open time window [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates and builds a range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if !end.After(start) {
		return DateRange{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// Duration returns the length of the range.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Previous returns the immediately preceding window of equal length.
func (r DateRange) Previous() DateRange {
	return DateRange{Start: r.Start.Add(-r.Duration()), End: r.Start}
}

// Extended returns [Previous().Start, End), the span a current-vs-prior
// comparison has to read.
func (r DateRange) Extended() DateRange {
	return DateRange{Start: r.Previous().Start, End: r.End}
}

// Contains reports whether t falls in [Start, End).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Covers reports whether other lies entirely within r.
func (r DateRange) Covers(other DateRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Days returns the number of whole days in the range, at least 1.
func (r DateRange) Days() int {
	d := int(r.Duration() / (24 * time.Hour))
	if d < 1 {
		return 1
	}
	return d
}

// Key returns a canonical string for the range in epoch milliseconds.
func (r DateRange) Key() string {
	return fmt.Sprintf("%d-%d", r.Start.UnixMilli(), r.End.UnixMilli())
}

// String implements fmt.Stringer.
func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// HistoryStart is the lower bound for queries that need every order a
// customer ever placed.
var HistoryStart = time.Unix(0, 0).UTC()

// TrailingDays returns the window of n days ending at end.
func TrailingDays(end time.Time, n int) DateRange {
	return DateRange{Start: end.AddDate(0, 0, -n), End: end}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth truncates t to the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// MonthsBetween returns the whole calendar-month offset from a to b.
func MonthsBetween(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am)
}
