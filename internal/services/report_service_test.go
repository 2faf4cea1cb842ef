package services

import (
	"math"
	"testing"

	"gorm.io/gorm"

	"coinkeep/internal/events"
	"coinkeep/internal/models"
	"coinkeep/internal/testutil"
)

func newReportTestService(t *testing.T) (ReportServicer, PlannedServicer, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	bus := events.NewBus()
	accounts := NewAccountService(db, bus)
	categories := NewCategoryService(db, bus)
	settings := NewSettingsService(db, bus)
	planned := NewPlannedService(db, bus, categories)
	reports := NewReportService(db, accounts, settings, planned)

	user := testutil.CreateTestUser(t, db)
	return reports, planned, db, user
}

func TestPartitionByPolarity(t *testing.T) {
	breakdown := CategoryBreakdown{
		"2024-01": {"Groceries": -5000, "Salary": 200000, "Misc": 0},
		"2024-02": {"Groceries": -4000},
	}

	t.Run("positive", func(t *testing.T) {
		got := PartitionByPolarity(breakdown, true)
		if len(got["2024-01"]) != 1 || got["2024-01"]["Salary"] != 200000 {
			t.Errorf("unexpected positive partition: %v", got["2024-01"])
		}
		// Period keys survive even when everything was filtered out.
		if _, ok := got["2024-02"]; !ok {
			t.Error("expected 2024-02 key to survive")
		}
		if len(got["2024-02"]) != 0 {
			t.Errorf("expected empty 2024-02, got %v", got["2024-02"])
		}
	})

	t.Run("negative", func(t *testing.T) {
		got := PartitionByPolarity(breakdown, false)
		if got["2024-01"]["Groceries"] != -5000 {
			t.Errorf("unexpected negative partition: %v", got["2024-01"])
		}
		if _, ok := got["2024-01"]["Misc"]; ok {
			t.Error("zero nets must be dropped")
		}
		if got["2024-02"]["Groceries"] != -4000 {
			t.Errorf("unexpected negative partition: %v", got["2024-02"])
		}
	})
}

func TestNetWorth(t *testing.T) {
	t.Run("converts_per_currency_subtotals", func(t *testing.T) {
		svc, _, db, user := newReportTestService(t)
		testutil.CreateTestCurrency(t, db, user.ID, "USD", 1.0)
		testutil.CreateTestCurrency(t, db, user.ID, "EUR", 0.5)
		testutil.CreateTestAccountWithBalance(t, db, user.ID, 10000, "USD")
		testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000, "EUR")
		testutil.CreateTestAccountWithBalance(t, db, user.ID, 2000, "EUR")

		report, err := svc.NetWorth(user.ID)
		testutil.AssertNoError(t, err)

		if report.BaseCurrency != "USD" {
			t.Errorf("expected base USD, got %s", report.BaseCurrency)
		}
		// 7000 EUR cents at 0.5 per USD is 14000 USD cents.
		if report.Total != 24000 {
			t.Errorf("expected total 24000, got %d", report.Total)
		}
		if len(report.PerCurrency) != 2 {
			t.Fatalf("expected 2 subtotals, got %d", len(report.PerCurrency))
		}
		// Sorted by code: EUR first.
		if report.PerCurrency[0].Currency != "EUR" || report.PerCurrency[0].InBase != 14000 {
			t.Errorf("unexpected EUR subtotal: %+v", report.PerCurrency[0])
		}
	})

	t.Run("missing_rate_fails", func(t *testing.T) {
		svc, _, db, user := newReportTestService(t)
		testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000, "EUR")

		_, err := svc.NetWorth(user.ID)
		testutil.AssertAppError(t, err, "MISSING_EXCHANGE_RATE")
	})

	t.Run("base_currency_needs_no_rate_row", func(t *testing.T) {
		svc, _, db, user := newReportTestService(t)
		testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000, "USD")

		report, err := svc.NetWorth(user.ID)
		testutil.AssertNoError(t, err)
		if report.Total != 5000 {
			t.Errorf("expected total 5000, got %d", report.Total)
		}
	})
}

func TestCategoryBreakdown(t *testing.T) {
	svc, _, db, user := newReportTestService(t)
	account := testutil.CreateTestAccount(t, db, user.ID)
	groceries := testutil.CreateTestCategoryWithName(t, db, user.ID, "Groceries", models.CategoryTypeExpense)
	salary := testutil.CreateTestCategoryWithName(t, db, user.ID, "Salary", models.CategoryTypeIncome)

	testutil.CreateTestTransaction(t, db, user.ID, account.ID, &groceries.ID,
		models.TransactionTypeExpense, 3000, date(2024, 1, 5))
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, &groceries.ID,
		models.TransactionTypeExpense, 2000, date(2024, 1, 20))
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, &salary.ID,
		models.TransactionTypeIncome, 200000, date(2024, 1, 25))
	// Transfer legs never show up in the breakdown.
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, nil,
		models.TransactionTypeExpenseTransfer, 99999, date(2024, 1, 26))

	t.Run("expenses", func(t *testing.T) {
		got, err := svc.CategoryBreakdown(user.ID, date(2024, 1, 1), date(2024, 2, 28), false)
		testutil.AssertNoError(t, err)

		if got["2024-01"]["Groceries"] != -5000 {
			t.Errorf("expected Groceries -5000, got %d", got["2024-01"]["Groceries"])
		}
		if _, ok := got["2024-01"]["Salary"]; ok {
			t.Error("income must not appear in the expense partition")
		}
		// February is in the window even though it has no transactions.
		if _, ok := got["2024-02"]; !ok {
			t.Error("expected empty 2024-02 period key")
		}
	})

	t.Run("income", func(t *testing.T) {
		got, err := svc.CategoryBreakdown(user.ID, date(2024, 1, 1), date(2024, 1, 31), true)
		testutil.AssertNoError(t, err)

		if got["2024-01"]["Salary"] != 200000 {
			t.Errorf("expected Salary 200000, got %d", got["2024-01"]["Salary"])
		}
	})

	t.Run("inverted_window", func(t *testing.T) {
		_, err := svc.CategoryBreakdown(user.ID, date(2024, 2, 1), date(2024, 1, 1), true)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("keys_every_month_when_start_day_is_late", func(t *testing.T) {
		// A window from the 31st to the 1st still covers three months.
		got, err := svc.CategoryBreakdown(user.ID, date(2024, 1, 31), date(2024, 3, 1), false)
		testutil.AssertNoError(t, err)

		for _, period := range []string{"2024-01", "2024-02", "2024-03"} {
			if _, ok := got[period]; !ok {
				t.Errorf("expected period key %s, got %v", period, got)
			}
		}
	})
}

func TestConvertToBaseRoundTrip(t *testing.T) {
	// Rate is units of the currency per one unit of the base, so converting
	// into the base divides and converting back multiplies.
	cases := []struct {
		name   string
		amount int64
		rate   float64
	}{
		{"eur_fraction_of_base", 46000, 0.92},
		{"sek_many_per_base", 10450, 10.45},
		{"base_itself", 5000, 1.0},
		{"negative_amount", -46000, 0.92},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inBase := convertToBase(tc.amount, tc.rate)
			back := int64(math.Round(float64(inBase) * tc.rate))
			if back != tc.amount {
				t.Errorf("round trip %d at %v: got %d back via %d in base", tc.amount, tc.rate, back, inBase)
			}
		})
	}
}

func TestProjection(t *testing.T) {
	svc, planned, db, user := newReportTestService(t)
	testutil.CreateTestCurrency(t, db, user.ID, "USD", 1.0)
	testutil.CreateTestCurrency(t, db, user.ID, "EUR", 0.5)
	expense := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	income := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

	_, err := planned.CreatePlanned(user.ID, PlannedInput{
		Name:       "Rent",
		Type:       models.TransactionTypeExpense,
		CategoryID: &expense.ID,
		Currency:   "EUR",
		Amount:     50000,
		StartDate:  date(2024, 1, 1),
		Recurrence: models.RecurrenceMonthly,
		Every:      1,
	})
	testutil.AssertNoError(t, err)

	_, err = planned.CreatePlanned(user.ID, PlannedInput{
		Name:       "Salary",
		Type:       models.TransactionTypeIncome,
		CategoryID: &income.ID,
		Currency:   "USD",
		Amount:     300000,
		StartDate:  date(2024, 1, 25),
		Recurrence: models.RecurrenceMonthly,
		Every:      1,
	})
	testutil.AssertNoError(t, err)

	report, err := svc.Projection(user.ID, date(2024, 1, 1), date(2024, 2, 28))
	testutil.AssertNoError(t, err)

	if len(report.Occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(report.Occurrences))
	}
	if report.PerCurrency["EUR"] != -100000 {
		t.Errorf("expected EUR net -100000, got %d", report.PerCurrency["EUR"])
	}
	if report.PerCurrency["USD"] != 600000 {
		t.Errorf("expected USD net 600000, got %d", report.PerCurrency["USD"])
	}
	// -100000 EUR cents at 0.5 per USD is -200000 in base.
	if report.Total != 400000 {
		t.Errorf("expected total 400000, got %d", report.Total)
	}
}
