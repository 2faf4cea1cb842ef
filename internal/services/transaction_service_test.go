package services

import (
	"testing"

	"gorm.io/gorm"

	"coinkeep/internal/events"
	"coinkeep/internal/models"
	"coinkeep/internal/pagination"
	"coinkeep/internal/testutil"
)

type testFixture struct {
	db       *gorm.DB
	user     *models.User
	account  *models.Account
	category *models.Category
}

func newTransactionTestServices(t *testing.T) (TransactionServicer, AccountServicer, CategoryServicer, *testFixture) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	bus := events.NewBus()
	accounts := NewAccountService(db, bus)
	categories := NewCategoryService(db, bus)
	transactions := NewTransactionService(db, bus, accounts, categories)

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	return transactions, accounts, categories, &testFixture{db: db, user: user, account: account, category: category}
}

// createTransferLeg persists a bare transfer leg on the fixture account.
func createTransferLeg(t *testing.T, fx *testFixture) *models.Transaction {
	t.Helper()
	return testutil.CreateTestTransaction(t, fx.db, fx.user.ID, fx.account.ID, nil,
		models.TransactionTypeExpenseTransfer, 1000, date(2024, 1, 10))
}

func TestCreateTransaction(t *testing.T) {
	t.Run("valid_expense", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		transaction, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, &fx.category.ID,
			"Groceries", models.TransactionTypeExpense, 5000, date(2024, 1, 10))
		testutil.AssertNoError(t, err)

		if transaction.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		if transaction.Amount != 5000 {
			t.Errorf("expected amount 5000, got %d", transaction.Amount)
		}
	})

	t.Run("transfer_type_rejected", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		_, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, nil,
			"Sneaky", models.TransactionTypeExpenseTransfer, 5000, date(2024, 1, 10))
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("category_required", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		_, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, nil,
			"Groceries", models.TransactionTypeExpense, 5000, date(2024, 1, 10))
		testutil.AssertAppError(t, err, "CATEGORY_REQUIRED")
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		_, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, &fx.category.ID,
			"Nothing", models.TransactionTypeExpense, 0, date(2024, 1, 10))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_account", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		_, err := svc.CreateTransaction(fx.user.ID, "0191b4a2-0000-7000-8000-000000000000", &fx.category.ID,
			"Groceries", models.TransactionTypeExpense, 5000, date(2024, 1, 10))
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetUserTransactionsFilters(t *testing.T) {
	svc, _, _, fx := newTransactionTestServices(t)

	mustCreate := func(txType models.TransactionType, amount int64, day int) {
		t.Helper()
		var categoryID *string
		if !txType.IsTransfer() {
			categoryID = &fx.category.ID
		}
		_, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, categoryID, "t", txType, amount, date(2024, 1, day))
		testutil.AssertNoError(t, err)
	}
	mustCreate(models.TransactionTypeExpense, 1000, 5)
	mustCreate(models.TransactionTypeExpense, 9000, 15)
	mustCreate(models.TransactionTypeIncome, 4000, 25)

	t.Run("by_type", func(t *testing.T) {
		txType := models.TransactionTypeIncome
		page, err := svc.GetUserTransactions(fx.user.ID, pagination.PageRequest{}, TransactionFilter{Type: &txType})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 income transaction, got %d", page.TotalItems)
		}
	})

	t.Run("by_date_window", func(t *testing.T) {
		from, to := date(2024, 1, 10), date(2024, 1, 20)
		page, err := svc.GetUserTransactions(fx.user.ID, pagination.PageRequest{}, TransactionFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 transaction in window, got %d", page.TotalItems)
		}
	})

	t.Run("by_amount_range", func(t *testing.T) {
		min := int64(2000)
		page, err := svc.GetUserTransactions(fx.user.ID, pagination.PageRequest{}, TransactionFilter{MinAmount: &min})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 transactions at or above 2000, got %d", page.TotalItems)
		}
	})

	t.Run("newest_first", func(t *testing.T) {
		page, err := svc.GetUserTransactions(fx.user.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(page.Data))
		}
		if !page.Data[0].Date.After(page.Data[2].Date) {
			t.Error("expected newest transaction first")
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("updates_fields", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)
		created, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, &fx.category.ID,
			"Groceries", models.TransactionTypeExpense, 5000, date(2024, 1, 10))
		testutil.AssertNoError(t, err)

		name := "Supermarket"
		amount := int64(5500)
		updated, err := svc.UpdateTransaction(fx.user.ID, created.ID, TransactionUpdateFields{Name: &name, Amount: &amount})
		testutil.AssertNoError(t, err)
		if updated.Name != "Supermarket" || updated.Amount != 5500 {
			t.Errorf("unexpected update result: %s %d", updated.Name, updated.Amount)
		}
	})

	t.Run("transfer_leg_rejected", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		leg := createTransferLeg(t, fx)
		name := "tamper"
		_, err := svc.UpdateTransaction(fx.user.ID, leg.ID, TransactionUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_EDITABLE")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)
		created, err := svc.CreateTransaction(fx.user.ID, fx.account.ID, &fx.category.ID,
			"Groceries", models.TransactionTypeExpense, 5000, date(2024, 1, 10))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteTransaction(fx.user.ID, created.ID))
		_, err = svc.GetTransactionByID(fx.user.ID, created.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("transfer_leg_rejected", func(t *testing.T) {
		svc, _, _, fx := newTransactionTestServices(t)

		leg := createTransferLeg(t, fx)
		err := svc.DeleteTransaction(fx.user.ID, leg.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_EDITABLE")
	})
}
