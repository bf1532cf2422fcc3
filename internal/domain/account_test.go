package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "debit one cent over balance",
			balance:     decimal.RequireFromString("10.00"),
			debitAmount: decimal.RequireFromString("10.01"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	ceiling := decimal.RequireFromString(MaxBalance)

	tests := []struct {
		name        string
		balance     decimal.Decimal
		amount      decimal.Decimal
		expectError bool
	}{
		{"ordinary credit", decimal.NewFromInt(100), decimal.NewFromInt(50), false},
		{"reaches maximum exactly", ceiling.Sub(decimal.NewFromInt(1)), decimal.NewFromInt(1), false},
		{"one cent over maximum", ceiling, decimal.RequireFromString("0.01"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateCredit(tt.amount)

			if tt.expectError && !errors.Is(err, ErrBalanceTooLarge) {
				t.Errorf("expected ErrBalanceTooLarge, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_ApplyDebitAndCredit(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(100)}

	if got := acc.ApplyDebit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected 70 after debit, got %s", got)
	}

	if got := acc.ApplyCredit(decimal.RequireFromString("0.10")); !got.Equal(decimal.RequireFromString("100.10")) {
		t.Errorf("expected 100.10 after credit, got %s", got)
	}

	if !acc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("apply must not mutate balance, got %s", acc.Balance)
	}
}

func TestAccount_SetBalance(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(100), Version: 3}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	acc.SetBalance(decimal.NewFromInt(40), at)

	if !acc.Balance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected balance 40, got %s", acc.Balance)
	}
	if acc.Version != 4 {
		t.Errorf("expected version 4, got %d", acc.Version)
	}
	if !acc.UpdatedAt.Equal(at) {
		t.Errorf("expected updated_at %s, got %s", at, acc.UpdatedAt)
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorageError("get account", cause)

	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage kind, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "get account" {
		t.Fatalf("expected StorageError with op, got %#v", err)
	}

	if NewStorageError("noop", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}

	if got := NewStorageError("get", ErrAccountNotFound); got != ErrAccountNotFound {
		t.Fatalf("expected not found to pass through, got %v", got)
	}
}

func TestValidationErrorsShareKind(t *testing.T) {
	for _, err := range []error{
		ErrSameAccount,
		ErrInvalidAmount,
		ErrInvalidAccountName,
		ErrAmountTooLarge,
		ErrAmountTooSmall,
		ErrInvalidAmountPrecision,
		ErrBelowMinimumBalance,
		ErrBalanceTooLarge,
	} {
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected %v to be a validation error", err)
		}
	}

	if errors.Is(ErrInsufficientFunds, ErrValidation) {
		t.Error("insufficient funds must not be a validation error")
	}
}
