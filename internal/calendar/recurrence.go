package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"jobgate-appointment-api/internal/model"
)

// maxOccurrences caps a single expansion. A year of daily slots fits.
const maxOccurrences = 1000

var (
	ErrBadRange     = errors.New("end date is before start date")
	ErrBadFrequency = errors.New("frequency must be daily, weekly or monthly")
	ErrBadWeekday   = errors.New("weekdays must be between 0 (Sunday) and 6 (Saturday)")
)

// indexed 0 = Sunday, matching time.Weekday
var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

func toWeekdays(days []int) ([]rrule.Weekday, error) {
	out := make([]rrule.Weekday, 0, len(days))
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, ErrBadWeekday
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, weekdays[d])
		}
	}
	return out, nil
}

// Expand returns the dates of p that fall inside [start, end], both given as
// calendar dates. An empty frequency yields every day of the range.
func Expand(p model.RecurrencePattern, start, end time.Time) ([]time.Time, error) {
	return ExpandFrom(p, start, start, end)
}

// ExpandFrom is Expand with the pattern anchored on anchor instead of start,
// so Interval and Count keep counting from the same first occurrence
// whichever part of the series is asked for. Only dates inside [start, end]
// are returned. A zero anchor, or one after start, anchors on start.
func ExpandFrom(p model.RecurrencePattern, anchor, start, end time.Time) ([]time.Time, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, ErrBadRange
	}
	if anchor.IsZero() || model.DateOf(anchor).After(start) {
		anchor = start
	}
	anchor = model.DateOf(anchor)

	opt := rrule.ROption{
		Dtstart:  anchor,
		Interval: max(p.Interval, 1),
		Count:    p.Count,
	}
	switch p.Frequency {
	case model.FreqDaily, "":
		opt.Freq = rrule.DAILY
	case model.FreqWeekly:
		opt.Freq = rrule.WEEKLY
	case model.FreqMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return nil, ErrBadFrequency
	}
	if len(p.Weekdays) > 0 {
		wd, err := toWeekdays(p.Weekdays)
		if err != nil {
			return nil, err
		}
		opt.Byweekday = wd
	}
	until := end
	if p.Until != "" {
		u, err := model.ParseDate(p.Until)
		if err != nil {
			return nil, fmt.Errorf("until: %w", err)
		}
		if u.Before(until) {
			until = u
		}
	}
	if p.Count == 0 {
		opt.Until = until
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: %w", err)
	}
	dates := r.Between(start, until, true)
	if len(dates) > maxOccurrences {
		dates = dates[:maxOccurrences]
	}
	for i, d := range dates {
		dates[i] = model.DateOf(d)
	}
	return dates, nil
}

// ExpandWeekdays returns every date in [start, end] whose weekday is listed.
// No weekdays means every day.
func ExpandWeekdays(start, end time.Time, days []int) ([]time.Time, error) {
	return Expand(model.RecurrencePattern{Frequency: model.FreqDaily, Weekdays: days}, start, end)
}
