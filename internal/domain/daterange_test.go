package domain

import (
	"testing"
	"time"
)

// A Wednesday afternoon, mid-month, mid-quarter.
var fixedNow = time.Date(2024, time.January, 17, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePreset(t *testing.T) {
	tests := []struct {
		preset DatePreset
		start  time.Time
		end    time.Time
	}{
		{PresetToday, day(2024, time.January, 17), day(2024, time.January, 18)},
		{PresetYesterday, day(2024, time.January, 16), day(2024, time.January, 17)},
		{PresetTomorrow, day(2024, time.January, 18), day(2024, time.January, 19)},
		{PresetThisWeek, day(2024, time.January, 15), day(2024, time.January, 22)},
		{PresetLastWeek, day(2024, time.January, 8), day(2024, time.January, 15)},
		{PresetNextWeek, day(2024, time.January, 22), day(2024, time.January, 29)},
		{PresetThisMonth, day(2024, time.January, 1), day(2024, time.February, 1)},
		{PresetLastMonth, day(2023, time.December, 1), day(2024, time.January, 1)},
		{PresetNextMonth, day(2024, time.February, 1), day(2024, time.March, 1)},
		{PresetThisQuarter, day(2024, time.January, 1), day(2024, time.April, 1)},
		{PresetLastQuarter, day(2023, time.October, 1), day(2024, time.January, 1)},
		{PresetThisYear, day(2024, time.January, 1), day(2025, time.January, 1)},
		{PresetLastYear, day(2023, time.January, 1), day(2024, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			window, ok := ResolvePreset(tt.preset, fixedNow)
			if !ok {
				t.Fatalf("preset %s not resolved", tt.preset)
			}
			if !window.Start.Equal(tt.start) || !window.End.Equal(tt.end) {
				t.Errorf("window = [%v, %v), want [%v, %v)", window.Start, window.End, tt.start, tt.end)
			}
		})
	}
}

func TestResolvePresetUnknown(t *testing.T) {
	if _, ok := ResolvePreset("FORTNIGHT", fixedNow); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestThisWeekStartsMonday(t *testing.T) {
	// Sunday still belongs to the week that started the previous Monday.
	sunday := time.Date(2024, time.January, 21, 9, 0, 0, 0, time.UTC)
	window, _ := ResolvePreset(PresetThisWeek, sunday)
	if !window.Start.Equal(day(2024, time.January, 15)) {
		t.Errorf("week start = %v, want Monday the 15th", window.Start)
	}
}

func TestDateRangeContainsHalfOpen(t *testing.T) {
	window, _ := ResolvePreset(PresetToday, fixedNow)

	if !window.Contains(window.Start) {
		t.Error("start boundary should be included")
	}
	if window.Contains(window.End) {
		t.Error("end boundary should be excluded")
	}
	if !window.Contains(window.End.Add(-time.Nanosecond)) {
		t.Error("instant just before end should be included")
	}
}

func TestRelativeWindows(t *testing.T) {
	tests := []struct {
		amount int
		unit   InLastPeriod
		past   time.Time
		future time.Time
	}{
		{7, PeriodDays, fixedNow.AddDate(0, 0, -7), fixedNow.AddDate(0, 0, 7)},
		{2, PeriodWeeks, fixedNow.AddDate(0, 0, -14), fixedNow.AddDate(0, 0, 14)},
		{3, PeriodMonths, fixedNow.AddDate(0, -3, 0), fixedNow.AddDate(0, 3, 0)},
	}
	for _, tt := range tests {
		if got := RelativePast(tt.amount, tt.unit, fixedNow); !got.Equal(tt.past) {
			t.Errorf("RelativePast(%d %s) = %v, want %v", tt.amount, tt.unit, got, tt.past)
		}
		if got := RelativeFuture(tt.amount, tt.unit, fixedNow); !got.Equal(tt.future) {
			t.Errorf("RelativeFuture(%d %s) = %v, want %v", tt.amount, tt.unit, got, tt.future)
		}
	}
}

func TestTagParsersAreCaseInsensitive(t *testing.T) {
	if preset, ok := DatePresetFromString(" this_week "); !ok || preset != PresetThisWeek {
		t.Errorf("DatePresetFromString = %v, %v", preset, ok)
	}
	if _, ok := DatePresetFromString("SOMEDAY"); ok {
		t.Error("unknown preset name should not parse")
	}
	if unit, ok := InLastPeriodFromString("weeks"); !ok || unit != PeriodWeeks {
		t.Errorf("InLastPeriodFromString = %v, %v", unit, ok)
	}
}
