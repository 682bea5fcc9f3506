package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/fincore/platform/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DepositProjection is deposit account state rebuilt purely from the
// account's event stream.
type DepositProjection struct {
	AccountID       string
	CurrentBalance  decimal.Decimal
	AccruedInterest decimal.Decimal
	LastAccrualDate *time.Time
	EventCount      int
}

// LoanProjection is loan account state rebuilt purely from the account's
// event stream.
type LoanProjection struct {
	AccountID            string
	Principal            decimal.Decimal
	OutstandingPrincipal decimal.Decimal
	AccruedInterest      decimal.Decimal
	LastAccrualDate      *time.Time
	EventCount           int
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string
	Passed bool
	Detail string
}

// ProjectionResult holds the outcome of replaying one account's stream
// against its stored row.
type ProjectionResult struct {
	AccountID  string
	EventCount int
	Invariants []InvariantCheck
	AllPassed  bool
}

// ProjectDeposit folds a deposit account's events, oldest first, into a
// projection. Every command the engine runs leaves enough in its payload to
// rebuild the balances, which is what makes the event log the source of
// truth rather than a byproduct.
func ProjectDeposit(accountID string, events []domain.DomainEvent) (*DepositProjection, error) {
	proj := &DepositProjection{
		AccountID:       accountID,
		CurrentBalance:  decimal.Zero,
		AccruedInterest: decimal.Zero,
	}
	for _, ev := range events {
		if ev.AggregateID != accountID {
			continue
		}
		proj.EventCount++
		switch ev.EventType {
		case domain.EventDepositAccountOpened:
			var p domain.DepositAccountOpenedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			opened, err := parseISODate(p.OpenedOn)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.CurrentBalance = decimal.Zero
			proj.AccruedInterest = decimal.Zero
			proj.LastAccrualDate = &opened

		case domain.EventDepositPosted:
			amt, err := moneyMovedAmount(ev.Payload)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.CurrentBalance = money.Quantize(proj.CurrentBalance.Add(amt))

		case domain.EventWithdrawalPosted:
			amt, err := moneyMovedAmount(ev.Payload)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.CurrentBalance = money.Quantize(proj.CurrentBalance.Sub(amt))

		case domain.EventInterestAccrued:
			var p domain.InterestAccruedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			interest, err := money.ParseAmount(p.Interest)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			to, err := parseISODate(p.ToDate)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.AccruedInterest = money.Quantize(proj.AccruedInterest.Add(interest))
			proj.LastAccrualDate = &to

		case domain.EventMonthEndApplied:
			var p domain.MonthEndAppliedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			posted, err := money.ParseAmount(p.InterestPosted)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.CurrentBalance = money.Quantize(proj.CurrentBalance.Add(posted))
			proj.AccruedInterest = decimal.Zero

		default:
			return nil, fmt.Errorf("project deposit: unexpected event type %s", ev.EventType)
		}
	}
	return proj, nil
}

// ProjectLoan folds a loan account's events, oldest first, into a projection.
func ProjectLoan(accountID string, events []domain.DomainEvent) (*LoanProjection, error) {
	proj := &LoanProjection{
		AccountID:            accountID,
		Principal:            decimal.Zero,
		OutstandingPrincipal: decimal.Zero,
		AccruedInterest:      decimal.Zero,
	}
	for _, ev := range events {
		if ev.AggregateID != accountID {
			continue
		}
		proj.EventCount++
		switch ev.EventType {
		case domain.EventLoanOpened:
			var p domain.LoanOpenedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			principal, err := money.ParseAmount(p.Principal)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			opened, err := parseISODate(p.OpenedOn)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.Principal = principal
			proj.OutstandingPrincipal = principal
			proj.AccruedInterest = decimal.Zero
			proj.LastAccrualDate = &opened

		case domain.EventLoanInterestAccrued:
			var p domain.InterestAccruedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			interest, err := money.ParseAmount(p.Interest)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			to, err := parseISODate(p.ToDate)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.AccruedInterest = money.Quantize(proj.AccruedInterest.Add(interest))
			proj.LastAccrualDate = &to

		case domain.EventLoanRepaymentPosted:
			var p domain.LoanRepaymentPostedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			interestPaid, err := money.ParseAmount(p.InterestPaid)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			principalPaid, err := money.ParseAmount(p.PrincipalPaid)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", ev.EventType, err)
			}
			proj.AccruedInterest = money.Quantize(proj.AccruedInterest.Sub(interestPaid))
			proj.OutstandingPrincipal = money.Quantize(proj.OutstandingPrincipal.Sub(principalPaid))

		default:
			return nil, fmt.Errorf("project loan: unexpected event type %s", ev.EventType)
		}
	}
	return proj, nil
}

// Projector replays an account's event stream and validates the stored row
// against it. Used as a consistency harness in tests and tooling.
type Projector struct {
	pool     *pgxpool.Pool
	events   repository.EventRepository
	deposits repository.DepositAccountRepository
	loans    repository.LoanAccountRepository
}

// NewProjector creates a projector over the given repositories.
func NewProjector(
	pool *pgxpool.Pool,
	events repository.EventRepository,
	deposits repository.DepositAccountRepository,
	loans repository.LoanAccountRepository,
) *Projector {
	return &Projector{pool: pool, events: events, deposits: deposits, loans: loans}
}

// VerifyDeposit rebuilds a deposit account from its stream and checks it
// against the stored row.
func (p *Projector) VerifyDeposit(ctx context.Context, accountID string) (*ProjectionResult, error) {
	events, err := p.loadStream(ctx, domain.AggregateDepositAccount, accountID)
	if err != nil {
		return nil, err
	}
	proj, err := ProjectDeposit(accountID, events)
	if err != nil {
		return nil, err
	}
	acct, err := p.deposits.FindByID(ctx, p.pool, accountID)
	if err != nil {
		return nil, fmt.Errorf("verify deposit: %w", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(accountID)
	}

	checks := []InvariantCheck{
		{
			Name:   "balance_non_negative",
			Passed: acct.CurrentBalance.Sign() >= 0 && acct.AccruedInterest.Sign() >= 0,
			Detail: fmt.Sprintf("balance=%s accrued=%s", money.FormatAmount(acct.CurrentBalance), money.FormatAmount(acct.AccruedInterest)),
		},
		{
			Name:   "stream_balance_parity",
			Passed: proj.CurrentBalance.Equal(acct.CurrentBalance),
			Detail: fmt.Sprintf("projected=%s stored=%s", money.FormatAmount(proj.CurrentBalance), money.FormatAmount(acct.CurrentBalance)),
		},
		{
			Name:   "stream_accrual_parity",
			Passed: proj.AccruedInterest.Equal(acct.AccruedInterest),
			Detail: fmt.Sprintf("projected=%s stored=%s", money.FormatAmount(proj.AccruedInterest), money.FormatAmount(acct.AccruedInterest)),
		},
	}
	return buildResult(accountID, proj.EventCount, checks), nil
}

// VerifyLoan rebuilds a loan account from its stream and checks it against
// the stored row.
func (p *Projector) VerifyLoan(ctx context.Context, accountID string) (*ProjectionResult, error) {
	events, err := p.loadStream(ctx, domain.AggregateLoanAccount, accountID)
	if err != nil {
		return nil, err
	}
	proj, err := ProjectLoan(accountID, events)
	if err != nil {
		return nil, err
	}
	acct, err := p.loans.FindByID(ctx, p.pool, accountID)
	if err != nil {
		return nil, fmt.Errorf("verify loan: %w", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(accountID)
	}

	checks := []InvariantCheck{
		{
			Name: "principal_bounds",
			Passed: acct.OutstandingPrincipal.Sign() >= 0 &&
				acct.OutstandingPrincipal.LessThanOrEqual(acct.Principal) &&
				acct.AccruedInterest.Sign() >= 0,
			Detail: fmt.Sprintf("outstanding=%s principal=%s accrued=%s",
				money.FormatAmount(acct.OutstandingPrincipal), money.FormatAmount(acct.Principal), money.FormatAmount(acct.AccruedInterest)),
		},
		{
			Name:   "stream_principal_parity",
			Passed: proj.OutstandingPrincipal.Equal(acct.OutstandingPrincipal),
			Detail: fmt.Sprintf("projected=%s stored=%s", money.FormatAmount(proj.OutstandingPrincipal), money.FormatAmount(acct.OutstandingPrincipal)),
		},
		{
			Name:   "stream_accrual_parity",
			Passed: proj.AccruedInterest.Equal(acct.AccruedInterest),
			Detail: fmt.Sprintf("projected=%s stored=%s", money.FormatAmount(proj.AccruedInterest), money.FormatAmount(acct.AccruedInterest)),
		},
	}
	return buildResult(accountID, proj.EventCount, checks), nil
}

// loadStream fetches the account's events in oldest-first order.
func (p *Projector) loadStream(ctx context.Context, aggregateType domain.AggregateType, accountID string) ([]domain.DomainEvent, error) {
	at := string(aggregateType)
	events, _, err := p.events.List(ctx, p.pool, domain.EventFilter{
		AggregateType: &at,
		AggregateID:   &accountID,
		Limit:         500,
	})
	if err != nil {
		return nil, fmt.Errorf("load event stream: %w", err)
	}
	// List returns newest first; the fold wants the opposite.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func buildResult(accountID string, eventCount int, checks []InvariantCheck) *ProjectionResult {
	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}
	return &ProjectionResult{
		AccountID:  accountID,
		EventCount: eventCount,
		Invariants: checks,
		AllPassed:  allPassed,
	}
}

func moneyMovedAmount(payload json.RawMessage) (decimal.Decimal, error) {
	var p domain.MoneyMovedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return decimal.Zero, err
	}
	return money.ParseAmount(p.Amount)
}

func parseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
