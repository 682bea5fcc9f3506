package repository

import (
	"context"
	"fmt"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/jackc/pgx/v5"
)

type loanAccountRepo struct{}

// NewLoanAccountRepository returns a pgx-backed LoanAccountRepository.
func NewLoanAccountRepository() LoanAccountRepository {
	return &loanAccountRepo{}
}

func (r *loanAccountRepo) Create(ctx context.Context, db DBTX, acct *domain.LoanAccount) error {
	_, err := db.Exec(ctx, `
		INSERT INTO loan_accounts
		  (id, opened_on, status, principal, annual_interest_rate, day_count_basis,
		   outstanding_principal, accrued_interest, last_accrual_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		acct.ID,
		acct.OpenedOn,
		string(acct.Status),
		money.FormatAmount(acct.Principal),
		money.FormatRate(acct.AnnualInterestRate),
		acct.DayCountBasis,
		money.FormatAmount(acct.OutstandingPrincipal),
		money.FormatAmount(acct.AccruedInterest),
		acct.LastAccrualDate,
		acct.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan account: %w", err)
	}
	return nil
}

func (r *loanAccountRepo) FindByID(ctx context.Context, db DBTX, id string) (*domain.LoanAccount, error) {
	row := db.QueryRow(ctx, `
		SELECT id, opened_on, status, principal, annual_interest_rate, day_count_basis,
		       outstanding_principal, accrued_interest, last_accrual_date, created_at
		FROM loan_accounts WHERE id = $1`, id)
	return scanLoanAccount(row)
}

func (r *loanAccountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.LoanAccount, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, opened_on, status, principal, annual_interest_rate, day_count_basis,
		       outstanding_principal, accrued_interest, last_accrual_date, created_at
		FROM loan_accounts WHERE id = $1 FOR UPDATE`, id)
	return scanLoanAccount(row)
}

// UpdateBalances persists outstanding_principal, accrued_interest and
// last_accrual_date; principal and the rate are immutable after open.
func (r *loanAccountRepo) UpdateBalances(ctx context.Context, db DBTX, acct *domain.LoanAccount) error {
	tag, err := db.Exec(ctx, `
		UPDATE loan_accounts
		SET outstanding_principal = $2, accrued_interest = $3, last_accrual_date = $4
		WHERE id = $1`,
		acct.ID,
		money.FormatAmount(acct.OutstandingPrincipal),
		money.FormatAmount(acct.AccruedInterest),
		acct.LastAccrualDate,
	)
	if err != nil {
		return fmt.Errorf("update loan account %s: %w", acct.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update loan account %s: no row", acct.ID)
	}
	return nil
}

func (r *loanAccountRepo) List(ctx context.Context, db DBTX, limit, offset int) ([]domain.LoanAccount, int64, error) {
	limit, offset = clampPage(limit, offset, 100, 500)

	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM loan_accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loan accounts: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT id, opened_on, status, principal, annual_interest_rate, day_count_basis,
		       outstanding_principal, accrued_interest, last_accrual_date, created_at
		FROM loan_accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query loan accounts: %w", err)
	}
	defer rows.Close()

	var accts []domain.LoanAccount
	for rows.Next() {
		acct, err := collectLoanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accts = append(accts, *acct)
	}
	return accts, total, rows.Err()
}

func scanLoanAccount(row pgx.Row) (*domain.LoanAccount, error) {
	acct, err := collectLoanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return acct, nil
}

func collectLoanAccount(row pgx.Row) (*domain.LoanAccount, error) {
	var acct domain.LoanAccount
	var principal, rate, outstanding, accrued string
	err := row.Scan(
		&acct.ID, &acct.OpenedOn, &acct.Status, &principal, &rate, &acct.DayCountBasis,
		&outstanding, &accrued, &acct.LastAccrualDate, &acct.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan loan account: %w", err)
	}

	if acct.Principal, err = money.ParseAmount(principal); err != nil {
		return nil, fmt.Errorf("loan account %s: %w", acct.ID, err)
	}
	if acct.AnnualInterestRate, err = money.ParseRate(rate); err != nil {
		return nil, fmt.Errorf("loan account %s: %w", acct.ID, err)
	}
	if acct.OutstandingPrincipal, err = money.ParseAmount(outstanding); err != nil {
		return nil, fmt.Errorf("loan account %s: %w", acct.ID, err)
	}
	if acct.AccruedInterest, err = money.ParseAmount(accrued); err != nil {
		return nil, fmt.Errorf("loan account %s: %w", acct.ID, err)
	}
	return &acct, nil
}
