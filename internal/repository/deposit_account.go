package repository

import (
	"context"
	"fmt"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/jackc/pgx/v5"
)

type depositAccountRepo struct{}

// NewDepositAccountRepository returns a pgx-backed DepositAccountRepository.
func NewDepositAccountRepository() DepositAccountRepository {
	return &depositAccountRepo{}
}

func (r *depositAccountRepo) Create(ctx context.Context, db DBTX, acct *domain.DepositAccount) error {
	_, err := db.Exec(ctx, `
		INSERT INTO deposit_accounts
		  (id, opened_on, status, annual_interest_rate, day_count_basis,
		   current_balance, accrued_interest, last_accrual_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acct.ID,
		acct.OpenedOn,
		string(acct.Status),
		money.FormatRate(acct.AnnualInterestRate),
		acct.DayCountBasis,
		money.FormatAmount(acct.CurrentBalance),
		money.FormatAmount(acct.AccruedInterest),
		acct.LastAccrualDate,
		acct.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deposit account: %w", err)
	}
	return nil
}

func (r *depositAccountRepo) FindByID(ctx context.Context, db DBTX, id string) (*domain.DepositAccount, error) {
	row := db.QueryRow(ctx, `
		SELECT id, opened_on, status, annual_interest_rate, day_count_basis,
		       current_balance, accrued_interest, last_accrual_date, created_at
		FROM deposit_accounts WHERE id = $1`, id)
	return scanDepositAccount(row)
}

func (r *depositAccountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.DepositAccount, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, opened_on, status, annual_interest_rate, day_count_basis,
		       current_balance, accrued_interest, last_accrual_date, created_at
		FROM deposit_accounts WHERE id = $1 FOR UPDATE`, id)
	return scanDepositAccount(row)
}

// UpdateBalances persists current_balance, accrued_interest and
// last_accrual_date; the remaining columns are immutable after open.
func (r *depositAccountRepo) UpdateBalances(ctx context.Context, db DBTX, acct *domain.DepositAccount) error {
	tag, err := db.Exec(ctx, `
		UPDATE deposit_accounts
		SET current_balance = $2, accrued_interest = $3, last_accrual_date = $4
		WHERE id = $1`,
		acct.ID,
		money.FormatAmount(acct.CurrentBalance),
		money.FormatAmount(acct.AccruedInterest),
		acct.LastAccrualDate,
	)
	if err != nil {
		return fmt.Errorf("update deposit account %s: %w", acct.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update deposit account %s: no row", acct.ID)
	}
	return nil
}

func (r *depositAccountRepo) List(ctx context.Context, db DBTX, limit, offset int) ([]domain.DepositAccount, int64, error) {
	limit, offset = clampPage(limit, offset, 100, 500)

	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM deposit_accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deposit accounts: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT id, opened_on, status, annual_interest_rate, day_count_basis,
		       current_balance, accrued_interest, last_accrual_date, created_at
		FROM deposit_accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query deposit accounts: %w", err)
	}
	defer rows.Close()

	var accts []domain.DepositAccount
	for rows.Next() {
		acct, err := collectDepositAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accts = append(accts, *acct)
	}
	return accts, total, rows.Err()
}

func scanDepositAccount(row pgx.Row) (*domain.DepositAccount, error) {
	acct, err := collectDepositAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return acct, nil
}

func collectDepositAccount(row pgx.Row) (*domain.DepositAccount, error) {
	var acct domain.DepositAccount
	var rate, balance, accrued string
	err := row.Scan(
		&acct.ID, &acct.OpenedOn, &acct.Status, &rate, &acct.DayCountBasis,
		&balance, &accrued, &acct.LastAccrualDate, &acct.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan deposit account: %w", err)
	}

	if acct.AnnualInterestRate, err = money.ParseRate(rate); err != nil {
		return nil, fmt.Errorf("deposit account %s: %w", acct.ID, err)
	}
	if acct.CurrentBalance, err = money.ParseAmount(balance); err != nil {
		return nil, fmt.Errorf("deposit account %s: %w", acct.ID, err)
	}
	if acct.AccruedInterest, err = money.ParseAmount(accrued); err != nil {
		return nil, fmt.Errorf("deposit account %s: %w", acct.ID, err)
	}
	return &acct, nil
}
