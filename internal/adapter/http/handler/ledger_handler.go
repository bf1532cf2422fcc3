package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Deposit(ctx context.Context, input usecase.BalanceChangeInput) (*domain.Account, error)
	Withdraw(ctx context.Context, input usecase.BalanceChangeInput) (*domain.Account, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	Summary(ctx context.Context) (*usecase.LedgerSummary, error)
}

// LedgerHandler handles balance-changing HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Deposit credits the account named in the path.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.balanceChange(w, r, "failed to deposit", h.ledgerUC.Deposit)
}

// Withdraw debits the account named in the path.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.balanceChange(w, r, "failed to withdraw", h.ledgerUC.Withdraw)
}

func (h *LedgerHandler) balanceChange(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	op func(context.Context, usecase.BalanceChangeInput) (*domain.Account, error),
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.AmountRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := op(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, r, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Transfer moves funds between two accounts.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.ledgerUC.Transfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromResult(result))
}

// Summary returns ledger-wide totals.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerUC.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to summarize ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}
