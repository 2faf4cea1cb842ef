package services

import (
	"testing"
	"time"

	"coinkeep/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func planned(recurrence models.RecurrenceType, every int, start time.Time, end *time.Time) models.PlannedTransaction {
	return models.PlannedTransaction{
		Name:       "Rent",
		Type:       models.TransactionTypeExpense,
		Currency:   "USD",
		Amount:     100000,
		StartDate:  start,
		EndDate:    end,
		Recurrence: recurrence,
		Every:      every,
	}
}

func assertDates(t *testing.T, got []Occurrence, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Date.Equal(want[i]) {
			t.Errorf("occurrence %d: expected %s, got %s", i, want[i].Format("2006-01-02"), got[i].Date.Format("2006-01-02"))
		}
	}
}

func TestOccurrencesOneOff(t *testing.T) {
	t.Run("inside_window", func(t *testing.T) {
		p := planned(models.RecurrenceNone, 1, date(2024, 3, 15), nil)
		got := Occurrences(p, date(2024, 3, 1), date(2024, 3, 31))
		assertDates(t, got, date(2024, 3, 15))
	})

	t.Run("outside_window", func(t *testing.T) {
		p := planned(models.RecurrenceNone, 1, date(2024, 4, 1), nil)
		got := Occurrences(p, date(2024, 3, 1), date(2024, 3, 31))
		assertDates(t, got)
	})

	t.Run("on_window_edge", func(t *testing.T) {
		p := planned(models.RecurrenceNone, 1, date(2024, 3, 31), nil)
		got := Occurrences(p, date(2024, 3, 1), date(2024, 3, 31))
		assertDates(t, got, date(2024, 3, 31))
	})
}

func TestOccurrencesMonthly(t *testing.T) {
	t.Run("basic_series", func(t *testing.T) {
		p := planned(models.RecurrenceMonthly, 1, date(2024, 1, 5), nil)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 3, 31))
		assertDates(t, got, date(2024, 1, 5), date(2024, 2, 5), date(2024, 3, 5))
	})

	t.Run("month_end_clamps", func(t *testing.T) {
		p := planned(models.RecurrenceMonthly, 1, date(2024, 1, 31), nil)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 4, 30))
		// 2024 is a leap year, February clamps to the 29th.
		assertDates(t, got, date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30))
	})

	t.Run("clamp_does_not_stick", func(t *testing.T) {
		p := planned(models.RecurrenceMonthly, 1, date(2023, 1, 31), nil)
		got := Occurrences(p, date(2023, 2, 1), date(2023, 3, 31))
		// March returns to the anchor day, it does not inherit February's 28th.
		assertDates(t, got, date(2023, 2, 28), date(2023, 3, 31))
	})

	t.Run("every_second_month", func(t *testing.T) {
		p := planned(models.RecurrenceMonthly, 2, date(2024, 1, 10), nil)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 6, 30))
		assertDates(t, got, date(2024, 1, 10), date(2024, 3, 10), date(2024, 5, 10))
	})

	t.Run("stops_at_end_date", func(t *testing.T) {
		end := date(2024, 2, 28)
		p := planned(models.RecurrenceMonthly, 1, date(2024, 1, 5), &end)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 12, 31))
		assertDates(t, got, date(2024, 1, 5), date(2024, 2, 5))
	})
}

func TestOccurrencesContinuous(t *testing.T) {
	t.Run("ignores_end_date", func(t *testing.T) {
		end := date(2024, 2, 28)
		p := planned(models.RecurrenceMonthlyContinuous, 1, date(2024, 1, 5), &end)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 4, 30))
		assertDates(t, got, date(2024, 1, 5), date(2024, 2, 5), date(2024, 3, 5), date(2024, 4, 5))
	})

	t.Run("weekly_continuous", func(t *testing.T) {
		p := planned(models.RecurrenceWeeklyContinuous, 1, date(2024, 1, 1), nil)
		got := Occurrences(p, date(2024, 1, 15), date(2024, 1, 31))
		assertDates(t, got, date(2024, 1, 15), date(2024, 1, 22), date(2024, 1, 29))
	})
}

func TestOccurrencesDailyWeeklyYearly(t *testing.T) {
	t.Run("daily_every_third_day", func(t *testing.T) {
		p := planned(models.RecurrenceDaily, 3, date(2024, 1, 1), nil)
		got := Occurrences(p, date(2024, 1, 1), date(2024, 1, 10))
		assertDates(t, got, date(2024, 1, 1), date(2024, 1, 4), date(2024, 1, 7), date(2024, 1, 10))
	})

	t.Run("weekly_window_offset", func(t *testing.T) {
		p := planned(models.RecurrenceWeekly, 1, date(2024, 1, 3), nil)
		got := Occurrences(p, date(2024, 1, 10), date(2024, 1, 24))
		assertDates(t, got, date(2024, 1, 10), date(2024, 1, 17), date(2024, 1, 24))
	})

	t.Run("yearly_leap_anchor", func(t *testing.T) {
		p := planned(models.RecurrenceYearly, 1, date(2024, 2, 29), nil)
		got := Occurrences(p, date(2024, 1, 1), date(2026, 12, 31))
		assertDates(t, got, date(2024, 2, 29), date(2025, 2, 28), date(2026, 2, 28))
	})
}

func TestOccurrencesStartAfterWindow(t *testing.T) {
	p := planned(models.RecurrenceMonthly, 1, date(2024, 6, 1), nil)
	got := Occurrences(p, date(2024, 1, 1), date(2024, 3, 31))
	assertDates(t, got)
}

func TestOccurrencesUnknownRecurrence(t *testing.T) {
	// A row written around the service validation must not hang expansion.
	p := planned(models.RecurrenceType("fortnightly"), 1, date(2024, 1, 1), nil)
	got := Occurrences(p, date(2024, 1, 1), date(2024, 12, 31))
	assertDates(t, got)
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain", date(2024, 1, 15), 1, date(2024, 2, 15)},
		{"jan31_to_feb", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"jan31_to_feb_nonleap", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"year_rollover", date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"backwards", date(2024, 3, 31), -1, date(2024, 2, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := addMonthsClamped(tc.start, tc.months)
			if !got.Equal(tc.want) {
				t.Errorf("expected %s, got %s", tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
			}
		})
	}
}
