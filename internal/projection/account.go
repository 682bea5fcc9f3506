package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
)

// DepositSnapshot is the read model for a deposit account. It is both the
// cached projection and the shape the API returns.
type DepositSnapshot struct {
	ID                 string `json:"id"`
	OpenedOn           string `json:"opened_on"`
	Status             string `json:"status"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	DayCountBasis      int    `json:"day_count_basis"`
	CurrentBalance     string `json:"current_balance"`
	AccruedInterest    string `json:"accrued_interest"`
}

// LoanSnapshot is the read model for a loan account.
type LoanSnapshot struct {
	ID                   string `json:"id"`
	OpenedOn             string `json:"opened_on"`
	Status               string `json:"status"`
	Principal            string `json:"principal"`
	AnnualInterestRate   string `json:"annual_interest_rate"`
	DayCountBasis        int    `json:"day_count_basis"`
	OutstandingPrincipal string `json:"outstanding_principal"`
	AccruedInterest      string `json:"accrued_interest"`
}

const (
	accountTTL = 5 * time.Minute
	dateLayout = "2006-01-02"
)

// NewDepositSnapshot builds the read model from the aggregate.
func NewDepositSnapshot(a *domain.DepositAccount) DepositSnapshot {
	return DepositSnapshot{
		ID:                 a.ID,
		OpenedOn:           a.OpenedOn.Format(dateLayout),
		Status:             string(a.Status),
		AnnualInterestRate: money.FormatRate(a.AnnualInterestRate),
		DayCountBasis:      a.DayCountBasis,
		CurrentBalance:     money.FormatAmount(a.CurrentBalance),
		AccruedInterest:    money.FormatAmount(a.AccruedInterest),
	}
}

// NewLoanSnapshot builds the read model from the aggregate.
func NewLoanSnapshot(a *domain.LoanAccount) LoanSnapshot {
	return LoanSnapshot{
		ID:                   a.ID,
		OpenedOn:             a.OpenedOn.Format(dateLayout),
		Status:               string(a.Status),
		Principal:            money.FormatAmount(a.Principal),
		AnnualInterestRate:   money.FormatRate(a.AnnualInterestRate),
		DayCountBasis:        a.DayCountBasis,
		OutstandingPrincipal: money.FormatAmount(a.OutstandingPrincipal),
		AccruedInterest:      money.FormatAmount(a.AccruedInterest),
	}
}

// CacheDeposit stores a deposit snapshot.
func CacheDeposit(ctx context.Context, store Store, snap DepositSnapshot) error {
	return SetJSON(ctx, store, depositKey(snap.ID), snap, accountTTL)
}

// CachedDeposit retrieves a cached deposit snapshot. Any error is a miss.
func CachedDeposit(ctx context.Context, store Store, id string) (*DepositSnapshot, error) {
	var snap DepositSnapshot
	if err := GetJSON(ctx, store, depositKey(id), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// InvalidateDeposit removes a cached deposit snapshot.
func InvalidateDeposit(ctx context.Context, store Store, id string) error {
	return store.Delete(ctx, depositKey(id))
}

// CacheLoan stores a loan snapshot.
func CacheLoan(ctx context.Context, store Store, snap LoanSnapshot) error {
	return SetJSON(ctx, store, loanKey(snap.ID), snap, accountTTL)
}

// CachedLoan retrieves a cached loan snapshot. Any error is a miss.
func CachedLoan(ctx context.Context, store Store, id string) (*LoanSnapshot, error) {
	var snap LoanSnapshot
	if err := GetJSON(ctx, store, loanKey(id), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// InvalidateLoan removes a cached loan snapshot.
func InvalidateLoan(ctx context.Context, store Store, id string) error {
	return store.Delete(ctx, loanKey(id))
}

func depositKey(id string) string { return fmt.Sprintf("projection:deposit:%s", id) }
func loanKey(id string) string    { return fmt.Sprintf("projection:loan:%s", id) }
