package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/ledger"
	"github.com/fincore/platform/internal/projection"
	"github.com/fincore/platform/internal/repository"
)

// DepositService orchestrates deposit account commands. Each command runs
// the engine inside one transaction and refreshes the cached projection
// after commit.
type DepositService struct {
	pool     *pgxpool.Pool
	deposits repository.DepositAccountRepository
	engine   *ledger.Engine
	cache    projection.Store
	logger   *slog.Logger
}

// NewDepositService creates a DepositService.
func NewDepositService(
	pool *pgxpool.Pool,
	deposits repository.DepositAccountRepository,
	engine *ledger.Engine,
	cache projection.Store,
	logger *slog.Logger,
) *DepositService {
	return &DepositService{pool: pool, deposits: deposits, engine: engine, cache: cache, logger: logger}
}

// Open creates a deposit account with a zero balance.
func (s *DepositService) Open(ctx context.Context, params domain.OpenDepositParams) (*projection.DepositSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteOpenDeposit(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !res.Idempotent {
		s.logger.Info("deposit account opened", "account_id", res.Account.ID)
	}
	return s.refresh(ctx, res.Account), nil
}

// Deposit posts funds into the account.
func (s *DepositService) Deposit(ctx context.Context, params domain.PostDepositParams) (*projection.DepositSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecutePostDeposit(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !res.Idempotent {
		s.logger.Info("deposit posted",
			"account_id", res.Account.ID,
			"amount", params.Amount.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// Withdraw removes funds; the engine rejects overdrafts.
func (s *DepositService) Withdraw(ctx context.Context, params domain.PostWithdrawalParams) (*projection.DepositSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecutePostWithdrawal(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !res.Idempotent {
		s.logger.Info("withdrawal posted",
			"account_id", res.Account.ID,
			"amount", params.Amount.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// Accrue brings simple interest forward to as_of_date.
func (s *DepositService) Accrue(ctx context.Context, params domain.AccrueParams) (*projection.DepositSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteAccrueDeposit(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if res.Event != nil {
		s.logger.Info("deposit interest accrued",
			"account_id", res.Account.ID,
			"accrued_interest", res.Account.AccruedInterest.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// ApplyMonthEnd capitalizes accrued interest into the balance.
func (s *DepositService) ApplyMonthEnd(ctx context.Context, params domain.MonthEndParams) (*projection.DepositSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.engine.ExecuteApplyMonthEnd(ctx, tx, params)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if res.Event != nil {
		s.logger.Info("month end applied",
			"account_id", res.Account.ID,
			"balance", res.Account.CurrentBalance.String(),
		)
	}
	return s.refresh(ctx, res.Account), nil
}

// Get returns the account projection, reading through the cache.
func (s *DepositService) Get(ctx context.Context, id string) (*projection.DepositSnapshot, error) {
	if snap, err := projection.CachedDeposit(ctx, s.cache, id); err == nil {
		return snap, nil
	}

	acct, err := s.deposits.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find deposit account", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(id)
	}
	return s.refresh(ctx, acct), nil
}

// List returns deposit account projections newest first.
func (s *DepositService) List(ctx context.Context, limit, offset int) ([]projection.DepositSnapshot, int64, error) {
	accounts, total, err := s.deposits.List(ctx, s.pool, limit, offset)
	if err != nil {
		return nil, 0, domain.ErrInternal("list deposit accounts", err)
	}
	items := make([]projection.DepositSnapshot, 0, len(accounts))
	for i := range accounts {
		items = append(items, projection.NewDepositSnapshot(&accounts[i]))
	}
	return items, total, nil
}

// refresh rebuilds and caches the snapshot. Cache failures only log; the
// database already holds the truth.
func (s *DepositService) refresh(ctx context.Context, acct *domain.DepositAccount) *projection.DepositSnapshot {
	snap := projection.NewDepositSnapshot(acct)
	if err := projection.CacheDeposit(ctx, s.cache, snap); err != nil {
		s.logger.Warn("cache deposit projection", "account_id", acct.ID, "error", err)
	}
	return &snap
}
