package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/jackc/pgx/v5"
)

type ledgerRepo struct{}

// NewLedgerRepository returns a pgx-backed LedgerRepository.
func NewLedgerRepository() LedgerRepository {
	return &ledgerRepo{}
}

func (r *ledgerRepo) Insert(ctx context.Context, db DBTX, entry *domain.LedgerEntry) error {
	_, err := db.Exec(ctx, `
		INSERT INTO ledger_entries
		  (id, created_at, effective_date, account_type, account_id,
		   txn_id, description, debit_account, credit_account, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID,
		entry.CreatedAt,
		entry.EffectiveDate,
		string(entry.AccountType),
		entry.AccountID,
		entry.TxnID,
		entry.Description,
		entry.DebitAccount,
		entry.CreditAccount,
		money.FormatAmount(entry.Amount),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepo) List(ctx context.Context, db DBTX, filter domain.LedgerFilter) ([]domain.LedgerEntry, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 200, 1000)

	where := sq.And{}
	if filter.AccountType != nil {
		where = append(where, sq.Eq{"account_type": *filter.AccountType})
	}
	if filter.AccountID != nil {
		where = append(where, sq.Eq{"account_id": *filter.AccountID})
	}
	if filter.TxnID != nil {
		where = append(where, sq.Eq{"txn_id": *filter.TxnID})
	}
	if filter.EffectiveFrom != nil {
		where = append(where, sq.GtOrEq{"effective_date": *filter.EffectiveFrom})
	}
	if filter.EffectiveTo != nil {
		where = append(where, sq.LtOrEq{"effective_date": *filter.EffectiveTo})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("ledger_entries").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build ledger count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	listSQL, listArgs, err := psql.
		Select("id", "created_at", "effective_date", "account_type", "account_id",
			"txn_id", "description", "debit_account", "credit_account", "amount").
		From("ledger_entries").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build ledger list: %w", err)
	}

	rows, err := db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := collectLedgerEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, rows.Err()
}

func collectLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var amount string
	err := row.Scan(
		&entry.ID, &entry.CreatedAt, &entry.EffectiveDate, &entry.AccountType,
		&entry.AccountID, &entry.TxnID, &entry.Description,
		&entry.DebitAccount, &entry.CreditAccount, &amount,
	)
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	if entry.Amount, err = money.ParseAmount(amount); err != nil {
		return nil, fmt.Errorf("ledger entry %s: %w", entry.ID, err)
	}
	return &entry, nil
}
