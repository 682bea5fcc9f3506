package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/fincore/platform/internal/repository"
)

// LedgerHandler exposes the double-entry journal.
type LedgerHandler struct {
	pool    *pgxpool.Pool
	entries repository.LedgerRepository
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(pool *pgxpool.Pool, entries repository.LedgerRepository) *LedgerHandler {
	return &LedgerHandler{pool: pool, entries: entries}
}

type ledgerEntryResponse struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	EffectiveDate string    `json:"effective_date"`
	AccountType   string    `json:"account_type"`
	AccountID     string    `json:"account_id"`
	TxnID         string    `json:"txn_id"`
	Description   string    `json:"description"`
	DebitAccount  string    `json:"debit_account"`
	CreditAccount string    `json:"credit_account"`
	Amount        string    `json:"amount"`
}

func newLedgerEntryResponse(le *domain.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:            le.ID,
		CreatedAt:     le.CreatedAt,
		EffectiveDate: le.EffectiveDate.Format(dateLayout),
		AccountType:   string(le.AccountType),
		AccountID:     le.AccountID,
		TxnID:         le.TxnID,
		Description:   le.Description,
		DebitAccount:  le.DebitAccount,
		CreditAccount: le.CreditAccount,
		Amount:        money.FormatAmount(le.Amount),
	}
}

// List handles GET /ledger/entries.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := optDateQuery(r, "effective_date_from")
	if err != nil {
		RespondError(w, err)
		return
	}
	to, err := optDateQuery(r, "effective_date_to")
	if err != nil {
		RespondError(w, err)
		return
	}

	limit, offset := pageParams(r)
	entries, total, err := h.entries.List(r.Context(), h.pool, domain.LedgerFilter{
		AccountType:   optQuery(r, "account_type"),
		AccountID:     optQuery(r, "account_id"),
		TxnID:         optQuery(r, "txn_id"),
		EffectiveFrom: from,
		EffectiveTo:   to,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		RespondError(w, domain.ErrInternal("list ledger entries", err))
		return
	}

	items := make([]ledgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, newLedgerEntryResponse(&entries[i]))
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
