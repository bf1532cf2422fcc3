package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/usecase"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidRequest is returned when a request body fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	HolderName     string          `json:"holder_name"     validate:"required,max=255"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// Validate checks the request shape.
func (r *CreateAccountRequest) Validate() error {
	return validateStruct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		HolderName:     r.HolderName,
		InitialBalance: r.InitialBalance,
	}
}

// AmountRequest is the body of a deposit or a withdrawal.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks the request shape.
func (r *AmountRequest) Validate() error {
	return validateStruct(r)
}

// ToUseCaseInput converts to use case input for the given account.
func (r *AmountRequest) ToUseCaseInput(accountID string) usecase.BalanceChangeInput {
	return usecase.BalanceChangeInput{
		AccountID: accountID,
		Amount:    r.Amount,
	}
}

// CreateTransferRequest represents a request to move funds between accounts.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id" validate:"required,max=64"`
	ToAccountID   string          `json:"to_account_id"   validate:"required,max=64"`
	Amount        decimal.Decimal `json:"amount"`
}

// Validate checks the request shape.
func (r *CreateTransferRequest) Validate() error {
	return validateStruct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
	}
}

// Amounts are checked by the domain, which owns the precision and range rules.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonName(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func jsonName(field string) string {
	switch field {
	case "HolderName":
		return "holder_name"
	case "FromAccountID":
		return "from_account_id"
	case "ToAccountID":
		return "to_account_id"
	default:
		return strings.ToLower(field)
	}
}
