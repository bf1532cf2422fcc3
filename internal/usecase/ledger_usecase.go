package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// LedgerUseCase applies balance-changing operations.
// Every operation validates its input first, then locks the affected accounts in
// ascending id order inside one transaction, so concurrent operations on the same
// accounts serialize and transfers commit both sides or neither.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	retrier     Retrier
	metrics     MetricsRecorder
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier and recorder may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	retrier Retrier,
	recorder MetricsRecorder,
) *LedgerUseCase {
	if retrier == nil {
		retrier = singleAttempt{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		retrier:     retrier,
		metrics:     recorder,
	}
}

// BalanceChangeInput represents input for a deposit or a withdrawal.
type BalanceChangeInput struct {
	AccountID string
	Amount    decimal.Decimal
}

// TransferInput represents input for moving funds between two accounts.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// TransferResult holds both accounts as committed by a transfer.
type TransferResult struct {
	From *domain.Account
	To   *domain.Account
}

// LedgerSummary holds ledger-wide totals.
type LedgerSummary struct {
	AccountCount int64
	TotalBalance decimal.Decimal
}

// Deposit credits amount to an account.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input BalanceChangeInput) (account *domain.Account, err error) {
	defer uc.observe(ctx, OperationDeposit, input.Amount, time.Now(), &err)

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	accounts, err := uc.mutate(ctx, []string{input.AccountID}, func(accounts map[string]*domain.Account, now time.Time) error {
		acc := accounts[input.AccountID]
		if err := acc.ValidateCredit(input.Amount); err != nil {
			return err
		}
		acc.SetBalance(acc.ApplyCredit(input.Amount), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts[input.AccountID], nil
}

// Withdraw debits amount from an account. The balance never goes below zero.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input BalanceChangeInput) (account *domain.Account, err error) {
	defer uc.observe(ctx, OperationWithdraw, input.Amount, time.Now(), &err)

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	accounts, err := uc.mutate(ctx, []string{input.AccountID}, func(accounts map[string]*domain.Account, now time.Time) error {
		acc := accounts[input.AccountID]
		if err := acc.ValidateDebit(input.Amount); err != nil {
			return err
		}
		acc.SetBalance(acc.ApplyDebit(input.Amount), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts[input.AccountID], nil
}

// Transfer moves amount from one account to another atomically.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (result *TransferResult, err error) {
	defer uc.observe(ctx, OperationTransfer, input.Amount, time.Now(), &err)

	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	ids := []string{input.FromAccountID, input.ToAccountID}

	accounts, err := uc.mutate(ctx, ids, func(accounts map[string]*domain.Account, now time.Time) error {
		from := accounts[input.FromAccountID]
		to := accounts[input.ToAccountID]

		if err := from.ValidateDebit(input.Amount); err != nil {
			return err
		}
		if err := to.ValidateCredit(input.Amount); err != nil {
			return err
		}

		from.SetBalance(from.ApplyDebit(input.Amount), now)
		to.SetBalance(to.ApplyCredit(input.Amount), now)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		From: accounts[input.FromAccountID],
		To:   accounts[input.ToAccountID],
	}, nil
}

// Summary returns the number of accounts and the sum of their balances.
func (uc *LedgerUseCase) Summary(ctx context.Context) (*LedgerSummary, error) {
	count, total, err := uc.ledgerRepo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	return &LedgerSummary{
		AccountCount: count,
		TotalBalance: total,
	}, nil
}

type mutation func(accounts map[string]*domain.Account, now time.Time) error

// mutate runs apply against the locked accounts and persists every one of them
// in a single transaction, retrying from scratch on storage conflicts.
func (uc *LedgerUseCase) mutate(ctx context.Context, ids []string, apply mutation) (map[string]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// DEADLOCK PREVENTION: always lock in ascending id order
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var committed map[string]*domain.Account

	err := uc.retrier.Retry(ctx, func() error {
		accounts, err := uc.runTx(ctx, sorted, apply)
		if err != nil {
			return err
		}
		committed = accounts
		return nil
	})
	if err != nil {
		return nil, err
	}

	return committed, nil
}

func (uc *LedgerUseCase) runTx(ctx context.Context, ids []string, apply mutation) (map[string]*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	accountMap := buildAccountMap(accounts)
	for _, id := range ids {
		if accountMap[id] == nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	if err := apply(accountMap, time.Now().UTC()); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := uc.accountRepo.Update(ctx, tx, accountMap[id]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return accountMap, nil
}

func (uc *LedgerUseCase) observe(ctx context.Context, operation string, amount decimal.Decimal, start time.Time, errp *error) {
	err := *errp
	uc.metrics.ObserveOperation(operation, amount, err, time.Since(start))

	logger := zerolog.Ctx(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("operation", operation).Str("amount", amount.String()).Msg("ledger operation rejected")
		return
	}
	logger.Info().Str("operation", operation).Str("amount", amount.String()).Msg("ledger operation committed")
}

func buildAccountMap(accounts []*domain.Account) map[string]*domain.Account {
	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return m
}
