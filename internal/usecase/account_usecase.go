package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo       AccountRepository
	idGen             IDGenerator
	minInitialBalance decimal.Decimal
	metrics           MetricsRecorder
}

// NewAccountUseCase creates a new AccountUseCase.
// Accounts must open with at least minInitialBalance. recorder may be nil.
func NewAccountUseCase(
	accountRepo AccountRepository,
	idGen IDGenerator,
	minInitialBalance decimal.Decimal,
	recorder MetricsRecorder,
) *AccountUseCase {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &AccountUseCase{
		accountRepo:       accountRepo,
		idGen:             idGen,
		minInitialBalance: minInitialBalance,
		metrics:           recorder,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	HolderName     string
	InitialBalance decimal.Decimal
}

// CreateAccount validates the request and opens a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.HolderName); err != nil {
		return nil, err
	}

	if err := domain.ValidateInitialBalance(input.InitialBalance, uc.minInitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:         uc.idGen.Generate(),
		HolderName: strings.TrimSpace(input.HolderName),
		Balance:    input.InitialBalance,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.metrics.AccountCreated()
	zerolog.Ctx(ctx).Info().
		Str("account_id", account.ID).
		Str("initial_balance", account.Balance.String()).
		Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
// A zero Limit lists every account.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts ordered by id.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.NormalizePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
