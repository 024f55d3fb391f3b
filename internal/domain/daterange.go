package domain

import (
	"strings"
	"time"
)

// DatePreset is a symbolic, calendar-relative date window. Presets resolve
// to concrete half-open intervals at evaluation time.
type DatePreset string

const (
	PresetToday       DatePreset = "TODAY"
	PresetYesterday   DatePreset = "YESTERDAY"
	PresetTomorrow    DatePreset = "TOMORROW"
	PresetThisWeek    DatePreset = "THIS_WEEK"
	PresetLastWeek    DatePreset = "LAST_WEEK"
	PresetNextWeek    DatePreset = "NEXT_WEEK"
	PresetThisMonth   DatePreset = "THIS_MONTH"
	PresetLastMonth   DatePreset = "LAST_MONTH"
	PresetNextMonth   DatePreset = "NEXT_MONTH"
	PresetThisQuarter DatePreset = "THIS_QUARTER"
	PresetLastQuarter DatePreset = "LAST_QUARTER"
	PresetThisYear    DatePreset = "THIS_YEAR"
	PresetLastYear    DatePreset = "LAST_YEAR"
)

var allDatePresets = []DatePreset{
	PresetToday, PresetYesterday, PresetTomorrow,
	PresetThisWeek, PresetLastWeek, PresetNextWeek,
	PresetThisMonth, PresetLastMonth, PresetNextMonth,
	PresetThisQuarter, PresetLastQuarter,
	PresetThisYear, PresetLastYear,
}

// DatePresetFromString resolves a preset by symbolic name, case-insensitively.
func DatePresetFromString(value string) (DatePreset, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, preset := range allDatePresets {
		if normalized == string(preset) {
			return preset, true
		}
	}
	return "", false
}

// InLastPeriod is the unit of a relative window for IN_LAST / IN_NEXT.
type InLastPeriod string

const (
	PeriodDays   InLastPeriod = "DAYS"
	PeriodWeeks  InLastPeriod = "WEEKS"
	PeriodMonths InLastPeriod = "MONTHS"
)

// InLastPeriodFromString resolves a period unit case-insensitively.
func InLastPeriodFromString(value string) (InLastPeriod, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(PeriodDays):
		return PeriodDays, true
	case string(PeriodWeeks):
		return PeriodWeeks, true
	case string(PeriodMonths):
		return PeriodMonths, true
	}
	return "", false
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the instant falls inside the interval.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// startOfDay strips the time component, keeping the location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfISOWeek returns the Monday 00:00 of the week containing t.
// Monday-start weeks regardless of any host first-day-of-week setting.
func startOfISOWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// startOfQuarter returns the first day of the calendar quarter containing t.
// Quarters are Jan-Mar, Apr-Jun, Jul-Sep, Oct-Dec.
func startOfQuarter(t time.Time) time.Time {
	quarterMonth := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
}

// ResolvePreset maps a preset to its interval anchored at now's calendar
// date. The second return value is false for unknown presets.
func ResolvePreset(preset DatePreset, now time.Time) (DateRange, bool) {
	today := startOfDay(now)

	switch preset {
	case PresetToday:
		return DateRange{Start: today, End: today.AddDate(0, 0, 1)}, true
	case PresetYesterday:
		return DateRange{Start: today.AddDate(0, 0, -1), End: today}, true
	case PresetTomorrow:
		return DateRange{Start: today.AddDate(0, 0, 1), End: today.AddDate(0, 0, 2)}, true
	case PresetThisWeek:
		monday := startOfISOWeek(now)
		return DateRange{Start: monday, End: monday.AddDate(0, 0, 7)}, true
	case PresetLastWeek:
		monday := startOfISOWeek(now).AddDate(0, 0, -7)
		return DateRange{Start: monday, End: monday.AddDate(0, 0, 7)}, true
	case PresetNextWeek:
		monday := startOfISOWeek(now).AddDate(0, 0, 7)
		return DateRange{Start: monday, End: monday.AddDate(0, 0, 7)}, true
	case PresetThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: first.AddDate(0, 1, 0)}, true
	case PresetLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return DateRange{Start: first, End: first.AddDate(0, 1, 0)}, true
	case PresetNextMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return DateRange{Start: first, End: first.AddDate(0, 1, 0)}, true
	case PresetThisQuarter:
		first := startOfQuarter(now)
		return DateRange{Start: first, End: first.AddDate(0, 3, 0)}, true
	case PresetLastQuarter:
		first := startOfQuarter(now).AddDate(0, -3, 0)
		return DateRange{Start: first, End: first.AddDate(0, 3, 0)}, true
	case PresetThisYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: first.AddDate(1, 0, 0)}, true
	case PresetLastYear:
		first := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: first.AddDate(1, 0, 0)}, true
	}
	return DateRange{}, false
}

// RelativePast returns the cutoff `amount` units before now. Unlike the
// preset windows this keeps now's time-of-day.
func RelativePast(amount int, unit InLastPeriod, now time.Time) time.Time {
	return shiftByPeriod(now, -amount, unit)
}

// RelativeFuture returns the cutoff `amount` units after now.
func RelativeFuture(amount int, unit InLastPeriod, now time.Time) time.Time {
	return shiftByPeriod(now, amount, unit)
}

func shiftByPeriod(t time.Time, amount int, unit InLastPeriod) time.Time {
	switch unit {
	case PeriodDays:
		return t.AddDate(0, 0, amount)
	case PeriodWeeks:
		return t.AddDate(0, 0, amount*7)
	case PeriodMonths:
		return t.AddDate(0, amount, 0)
	}
	return t
}
