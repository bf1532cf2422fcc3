package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a bank account holding a non-negative balance.
type Account struct {
	ID         string
	HolderName string
	Balance    decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks that crediting amount keeps the balance storable.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	if a.Balance.Add(amount).GreaterThan(maxBalance) {
		return fmt.Errorf("%w: maximum balance is %s", ErrBalanceTooLarge, MaxBalance)
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// SetBalance records a committed balance change.
func (a *Account) SetBalance(balance decimal.Decimal, at time.Time) {
	a.Balance = balance
	a.Version++
	a.UpdatedAt = at
}
