package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/models"
)

// reportService produces aggregated views over accounts, transactions, and
// planned transactions, expressed in the user's base currency.
type reportService struct {
	db       *gorm.DB
	accounts AccountServicer
	settings SettingsServicer
	planned  PlannedServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, accounts AccountServicer, settings SettingsServicer, planned PlannedServicer) ReportServicer {
	return &reportService{db: db, accounts: accounts, settings: settings, planned: planned}
}

// PartitionByPolarity keeps only the entries of one sign. Positive keeps
// strictly positive nets, negative keeps strictly negative ones; zeros are
// dropped either way. Period keys survive even when all of their entries are
// filtered out, so charts keep a continuous axis.
func PartitionByPolarity(breakdown CategoryBreakdown, positive bool) CategoryBreakdown {
	out := make(CategoryBreakdown, len(breakdown))
	for period, categories := range breakdown {
		filtered := make(map[string]int64)
		for name, net := range categories {
			if positive && net > 0 {
				filtered[name] = net
			}
			if !positive && net < 0 {
				filtered[name] = net
			}
		}
		out[period] = filtered
	}
	return out
}

// NetWorth sums the current balance of every account, converts each
// currency's subtotal into the base currency, and totals them. A currency
// with no stored rate fails the whole report rather than silently skewing it.
func (s *reportService) NetWorth(userID string) (*NetWorthReport, error) {
	baseCurrency, err := s.settings.BaseCurrency(userID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rateTable(userID)
	if err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	perCurrency := make(map[string]int64)
	for _, account := range accounts {
		balance, err := s.accounts.BalanceAsOf(userID, account.ID, now)
		if err != nil {
			return nil, err
		}
		perCurrency[account.Currency] += balance
	}

	report := &NetWorthReport{BaseCurrency: baseCurrency}
	for _, code := range sortedCodes(perCurrency) {
		balance := perCurrency[code]
		rate, err := lookupRate(rates, code, baseCurrency)
		if err != nil {
			return nil, err
		}
		inBase := convertToBase(balance, rate)
		report.PerCurrency = append(report.PerCurrency, CurrencySubtotal{
			Currency: code,
			Balance:  balance,
			Rate:     rate,
			InBase:   inBase,
		})
		report.Total += inBase
	}
	return report, nil
}

// CategoryBreakdown aggregates non-transfer transactions into per-month,
// per-category signed nets over [from, to], then keeps one polarity. Every
// month in the window appears as a key even when it has no transactions.
func (s *reportService) CategoryBreakdown(userID string, from, to time.Time, positive bool) (CategoryBreakdown, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "breakdown window end cannot be before its start")
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Category").
		Where("user_id = ? AND type IN ? AND date >= ? AND date < ?",
			userID,
			[]models.TransactionType{models.TransactionTypeExpense, models.TransactionTypeIncome},
			dateOnly(from), dateOnly(to).AddDate(0, 0, 1)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Key months from the first of each month so a late start day cannot
	// step past the window's final month.
	breakdown := make(CategoryBreakdown)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(last); cursor = cursor.AddDate(0, 1, 0) {
		breakdown[cursor.Format("2006-01")] = make(map[string]int64)
	}

	for _, t := range transactions {
		period := dateOnly(t.Date).Format("2006-01")
		if _, ok := breakdown[period]; !ok {
			breakdown[period] = make(map[string]int64)
		}
		name := "Uncategorized"
		if t.Category != nil {
			name = t.Category.Name
		}
		if t.Type.IsInflow() {
			breakdown[period][name] += t.Amount
		} else {
			breakdown[period][name] -= t.Amount
		}
	}

	return PartitionByPolarity(breakdown, positive), nil
}

// Projection expands planned transactions over [from, to] and expresses the
// net expected cash flow in the base currency.
func (s *reportService) Projection(userID string, from, to time.Time) (*ProjectionReport, error) {
	baseCurrency, err := s.settings.BaseCurrency(userID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rateTable(userID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.planned.Project(userID, from, to)
	if err != nil {
		return nil, err
	}

	perCurrency := make(map[string]int64)
	for _, occ := range occurrences {
		perCurrency[occ.Currency] += occ.Amount
	}

	report := &ProjectionReport{
		BaseCurrency: baseCurrency,
		PerCurrency:  perCurrency,
		Occurrences:  occurrences,
	}
	for _, code := range sortedCodes(perCurrency) {
		rate, err := lookupRate(rates, code, baseCurrency)
		if err != nil {
			return nil, err
		}
		report.Total += convertToBase(perCurrency[code], rate)
	}
	return report, nil
}

// rateTable loads the user's stored rates keyed by code.
func (s *reportService) rateTable(userID string) (map[string]float64, error) {
	var currencies []models.Currency
	if err := s.db.Where("user_id = ?", userID).Find(&currencies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	rates := make(map[string]float64, len(currencies))
	for _, c := range currencies {
		rates[c.Code] = c.Rate
	}
	return rates, nil
}

// lookupRate finds the stored rate for a code. The base currency itself
// always converts at 1.0 even when its row is missing.
func lookupRate(rates map[string]float64, code, baseCurrency string) (float64, error) {
	if code == baseCurrency {
		if rate, ok := rates[code]; ok {
			return rate, nil
		}
		return 1.0, nil
	}
	rate, ok := rates[code]
	if !ok || rate <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrMissingExchangeRate,
			fmt.Sprintf("no exchange rate stored for %s", code))
	}
	return rate, nil
}

// convertToBase converts an amount at the given units-per-base rate,
// rounding to the nearest cent.
func convertToBase(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) / rate))
}

func sortedCodes(m map[string]int64) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
