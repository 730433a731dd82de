package domain

import (
	"strings"
	"time"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountLoan       AccountType = "loan"
	AccountOther      AccountType = "other"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash,
		AccountInvestment, AccountLoan, AccountOther:
		return true
	}
	return false
}

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TransactionIncome      TransactionType = "income"
	TransactionExpense     TransactionType = "expense"
	TransactionTransferIn  TransactionType = "transfer_in"
	TransactionTransferOut TransactionType = "transfer_out"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransferIn, TransactionTransferOut:
		return true
	}
	return false
}

// Account is a place money is held or owed.
type Account struct {
	ID        string      `json:"account_id"`
	Name      string      `json:"account_name"`
	Type      AccountType `json:"account_type"`
	Currency  string      `json:"currency"`
	Notes     *string     `json:"notes,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

// Validate normalizes the name and checks the account invariants.
func (a *Account) Validate() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return NewValidationError("account_name", "cannot be empty or contain only whitespace")
	}
	if len(a.Name) > MaxNameLength {
		return NewValidationError("account_name", "is too long")
	}
	if !a.Type.Valid() {
		return NewValidationError("account_type", "unknown account type")
	}
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
	if !isCurrencyCode(a.Currency) {
		return NewValidationError("currency", "must be 3 uppercase letters")
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Category groups transactions and budgets. Categories may nest.
type Category struct {
	ID               string     `json:"category_id"`
	Name             string     `json:"category_name"`
	ParentCategoryID *string    `json:"parent_category_id,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Validate normalizes the name and checks the category invariants.
func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return NewValidationError("category_name", "cannot be empty or contain only whitespace")
	}
	if len(c.Name) > MaxNameLength {
		return NewValidationError("category_name", "is too long")
	}
	return nil
}

// Transaction is a single movement of money on an account.
type Transaction struct {
	ID              string          `json:"transaction_id"`
	AccountID       string          `json:"account_id"`
	Description     string          `json:"description"`
	Amount          float64         `json:"amount"`
	Type            TransactionType `json:"transaction_type"`
	CategoryID      *string         `json:"category_id,omitempty"`
	MerchantName    *string         `json:"merchant_name,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	IsRecurring     bool            `json:"is_recurring"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// Validate checks the transaction invariants.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", "cannot be empty or contain only whitespace")
	}
	if len(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", "is too long")
	}
	if t.Amount < 0 {
		return NewValidationError("amount", "must not be negative")
	}
	if !t.Type.Valid() {
		return NewValidationError("transaction_type", "unknown transaction type")
	}
	if t.MerchantName != nil && len(*t.MerchantName) > MaxMerchantLength {
		return NewValidationError("merchant_name", "is too long")
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now().Truncate(24 * time.Hour)
	}
	return nil
}

// BudgetPeriod is a named date range budgets are allocated against,
// e.g. "May 2025" or "Q2 2025".
type BudgetPeriod struct {
	ID        string     `json:"budget_period_id"`
	Name      string     `json:"period_name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate normalizes the name and checks the period invariants.
func (p *BudgetPeriod) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return NewValidationError("period_name", "cannot be empty or contain only whitespace")
	}
	if len(p.Name) > MaxNameLength {
		return NewValidationError("period_name", "is too long")
	}
	if p.EndDate.Before(p.StartDate) {
		return NewValidationError("end_date", "must be on or after start date")
	}
	return nil
}

// Budget is an amount allocated to a category for one period.
type Budget struct {
	ID              string     `json:"budget_id"`
	BudgetPeriodID  string     `json:"budget_period_id"`
	CategoryID      string     `json:"category_id"`
	AllocatedAmount float64    `json:"allocated_amount"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Validate checks the budget invariants.
func (b *Budget) Validate() error {
	if b.BudgetPeriodID == "" {
		return NewValidationError("budget_period_id", "is required")
	}
	if b.CategoryID == "" {
		return NewValidationError("category_id", "is required")
	}
	if b.AllocatedAmount < 0 {
		return NewValidationError("allocated_amount", "must not be negative")
	}
	return nil
}
