package domain

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName     = fmt.Errorf("%w: invalid holder name", ErrValidation)
	ErrAmountTooLarge         = fmt.Errorf("%w: amount exceeds maximum allowed", ErrValidation)
	ErrAmountTooSmall         = fmt.Errorf("%w: amount below minimum allowed", ErrValidation)
	ErrInvalidAmountPrecision = fmt.Errorf("%w: amount has too many decimal places", ErrValidation)
	ErrBelowMinimumBalance    = fmt.Errorf("%w: initial balance below minimum", ErrValidation)
	ErrBalanceTooLarge        = fmt.Errorf("%w: balance exceeds maximum allowed", ErrValidation)
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	AmountScale          = 2
	MaxTransferAmount    = "1000000000000" // 1 trillion
	MinTransferAmount    = "0.01"
	MaxBalance           = "999999999999999999.99" // largest NUMERIC(20,2)
	MaxPageSize          = 1000
	MaxPageOffset        = math.MaxInt32
)

var (
	minAmount  = decimal.RequireFromString(MinTransferAmount)
	maxAmount  = decimal.RequireFromString(MaxTransferAmount)
	maxBalance = decimal.RequireFromString(MaxBalance)
)

// ValidateAccountName validates the account holder name.
func ValidateAccountName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))

	if n < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if n > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateAmount validates a deposit, withdrawal or transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if err := validatePrecision(amount); err != nil {
		return err
	}

	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateInitialBalance checks an opening balance against the configured minimum.
func ValidateInitialBalance(balance, minimum decimal.Decimal) error {
	if err := validatePrecision(balance); err != nil {
		return err
	}

	if balance.LessThan(minimum) || balance.IsNegative() {
		return fmt.Errorf("%w: minimum is %s", ErrBelowMinimumBalance, minimum.StringFixed(AmountScale))
	}

	if balance.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// NormalizePagination clamps pagination parameters into the range every
// store accepts. A limit of zero means no limit.
func NormalizePagination(limit, offset int) (int, int) {
	limit = min(max(limit, 0), MaxPageSize)
	offset = min(max(offset, 0), MaxPageOffset)
	return limit, offset
}

func validatePrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places are allowed", ErrInvalidAmountPrecision, AmountScale)
	}
	return nil
}
