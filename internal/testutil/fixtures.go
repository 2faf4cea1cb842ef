package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"coinkeep/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an account with zero initial balance in USD.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0, "USD")
}

// CreateTestAccountWithBalance creates an account with the given initial
// balance (in cents) and currency.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance int64, currency string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Account %d", nextID()),
		InitialBalance: balance,
		Currency:       currency,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, userID, fmt.Sprintf("Category %d", nextID()), categoryType)
}

// CreateTestCategoryWithName creates a category with the given name and type.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, userID, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestCurrency creates a rate row for the given code.
func CreateTestCurrency(t *testing.T, db *gorm.DB, userID, code string, rate float64) *models.Currency {
	t.Helper()

	currency := &models.Currency{
		UserID: userID,
		Code:   code,
		Rate:   rate,
	}
	if err := db.Create(currency).Error; err != nil {
		t.Fatalf("failed to create test currency: %v", err)
	}
	return currency
}

// CreateTestTransaction creates a transaction dated on the given day.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, transactionType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	transaction, err := models.NewTransaction(userID, accountID, categoryID,
		fmt.Sprintf("Transaction %d", nextID()), transactionType, amount, date)
	if err != nil {
		t.Fatalf("failed to build test transaction: %v", err)
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}
