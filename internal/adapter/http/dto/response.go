package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID         string    `json:"id"`
	HolderName string    `json:"holder_name"`
	Balance    string    `json:"balance"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:         a.ID,
		HolderName: a.HolderName,
		Balance:    formatAmount(a.Balance),
		Version:    a.Version,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransferResponse holds both accounts after a transfer.
type TransferResponse struct {
	From *AccountResponse `json:"from"`
	To   *AccountResponse `json:"to"`
}

// TransferFromResult converts a transfer result to response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		From: AccountFromDomain(r.From),
		To:   AccountFromDomain(r.To),
	}
}

// LedgerSummaryResponse represents ledger-wide totals.
type LedgerSummaryResponse struct {
	AccountCount int64  `json:"account_count"`
	TotalBalance string `json:"total_balance"`
}

// SummaryFromUseCase converts a ledger summary to response.
func SummaryFromUseCase(s *usecase.LedgerSummary) *LedgerSummaryResponse {
	return &LedgerSummaryResponse{
		AccountCount: s.AccountCount,
		TotalBalance: formatAmount(s.TotalBalance),
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}
