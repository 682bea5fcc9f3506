package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/service"
)

// LoanHandler handles loan account endpoints.
type LoanHandler struct {
	loanSvc *service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanSvc *service.LoanService) *LoanHandler {
	return &LoanHandler{loanSvc: loanSvc}
}

type openLoanRequest struct {
	OpenedOn           string          `json:"opened_on"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	DayCountBasis      *int            `json:"day_count_basis"`
	IdempotencyKey     *string         `json:"idempotency_key"`
}

// Open handles POST /loan/accounts.
func (h *LoanHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openLoanRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	openedOn, err := parseDate("opened_on", req.OpenedOn)
	if err != nil {
		RespondError(w, err)
		return
	}
	basis := 365
	if req.DayCountBasis != nil {
		basis = *req.DayCountBasis
	}

	snap, err := h.loanSvc.Open(r.Context(), domain.OpenLoanParams{
		OpenedOn:           openedOn,
		Principal:          req.Principal,
		AnnualInterestRate: req.AnnualInterestRate,
		DayCountBasis:      basis,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// Accrue handles POST /loan/accounts/{accountID}/accrue.
func (h *LoanHandler) Accrue(w http.ResponseWriter, r *http.Request) {
	var req accrueRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	asOf, err := parseDate("as_of_date", req.AsOfDate)
	if err != nil {
		RespondError(w, err)
		return
	}

	snap, err := h.loanSvc.Accrue(r.Context(), domain.AccrueParams{
		AccountID: chi.URLParam(r, "accountID"),
		AsOfDate:  asOf,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// Repay handles POST /loan/accounts/{accountID}/repay.
func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	var req moneyRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	effective, err := parseDate("effective_date", req.EffectiveDate)
	if err != nil {
		RespondError(w, err)
		return
	}

	snap, err := h.loanSvc.Repay(r.Context(), domain.RepayLoanParams{
		AccountID:      chi.URLParam(r, "accountID"),
		Amount:         req.Amount,
		EffectiveDate:  effective,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// Get handles GET /loan/accounts/{accountID}.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.loanSvc.Get(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// List handles GET /loan/accounts.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, total, err := h.loanSvc.List(r.Context(), limit, offset)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
