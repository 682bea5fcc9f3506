package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/ledger"
	"github.com/fincore/platform/internal/money"
	"github.com/fincore/platform/internal/projection"
	"github.com/fincore/platform/internal/repository"
)

// LoanService orchestrates loan account commands.
type LoanService struct {
	pool   *pgxpool.Pool
	loans  repository.LoanAccountRepository
	engine *ledger.Engine
	cache  projection.Store
	logger *slog.Logger
}

// NewLoanService creates a LoanService.
func NewLoanService(
	pool *pgxpool.Pool,
	loans repository.LoanAccountRepository,
	engine *ledger.Engine,
	cache projection.Store,
	logger *slog.Logger,
) *LoanService {
	return &LoanService{pool: pool, loans: loans, engine: engine, cache: cache, logger: logger}
}

// Open originates a loan: full principal disbursed and outstanding.
func (s *LoanService) Open(ctx context.Context, params domain.OpenLoanParams) (*projection.LoanSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteOpenLoan(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !res.Idempotent {
		s.logger.Info("loan account opened",
			"account_id", res.Account.ID,
			"principal", res.Account.Principal.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// Accrue brings loan interest forward to as_of_date.
func (s *LoanService) Accrue(ctx context.Context, params domain.AccrueParams) (*projection.LoanSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteAccrueLoan(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if res.Event != nil {
		s.logger.Info("loan interest accrued",
			"account_id", res.Account.ID,
			"accrued_interest", res.Account.AccruedInterest.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// Repay applies a payment interest-first. Anything beyond interest plus
// outstanding principal is dropped; it is logged here and visible to
// subscribers through the event's allocation fields.
func (s *LoanService) Repay(ctx context.Context, params domain.RepayLoanParams) (*projection.LoanSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteRepayLoan(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !res.Idempotent {
		s.logger.Info("loan repayment posted",
			"account_id", res.Account.ID,
			"amount", params.Amount.String(),
			"interest_paid", res.InterestPaid.String(),
			"principal_paid", res.PrincipalPaid.String(),
		)
		dropped := money.Quantize(params.Amount).Sub(res.InterestPaid).Sub(res.PrincipalPaid)
		if dropped.Sign() > 0 {
			s.logger.Warn("loan overpayment dropped",
				"account_id", res.Account.ID,
				"dropped", dropped.String(),
			)
		}
	}
	return s.refresh(ctx, res.Account), nil
}

// Get returns the loan projection, reading through the cache.
func (s *LoanService) Get(ctx context.Context, id string) (*projection.LoanSnapshot, error) {
	if snap, err := projection.CachedLoan(ctx, s.cache, id); err == nil {
		return snap, nil
	}

	acct, err := s.loans.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find loan account", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(id)
	}
	return s.refresh(ctx, acct), nil
}

// List returns loan account projections newest first.
func (s *LoanService) List(ctx context.Context, limit, offset int) ([]projection.LoanSnapshot, int64, error) {
	accounts, total, err := s.loans.List(ctx, s.pool, limit, offset)
	if err != nil {
		return nil, 0, domain.ErrInternal("list loan accounts", err)
	}
	items := make([]projection.LoanSnapshot, 0, len(accounts))
	for i := range accounts {
		items = append(items, projection.NewLoanSnapshot(&accounts[i]))
	}
	return items, total, nil
}

func (s *LoanService) refresh(ctx context.Context, acct *domain.LoanAccount) *projection.LoanSnapshot {
	snap := projection.NewLoanSnapshot(acct)
	if err := projection.CacheLoan(ctx, s.cache, snap); err != nil {
		s.logger.Warn("cache loan projection", "account_id", acct.ID, "error", err)
	}
	return &snap
}
