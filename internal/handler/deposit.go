package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/service"
)

// DepositHandler handles deposit account endpoints.
type DepositHandler struct {
	depositSvc *service.DepositService
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositSvc *service.DepositService) *DepositHandler {
	return &DepositHandler{depositSvc: depositSvc}
}

type openDepositRequest struct {
	OpenedOn           string          `json:"opened_on"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	DayCountBasis      *int            `json:"day_count_basis"`
	IdempotencyKey     *string         `json:"idempotency_key"`
}

// moneyRequest is the body shared by deposit, withdraw and repay.
type moneyRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	EffectiveDate  string          `json:"effective_date"`
	IdempotencyKey *string         `json:"idempotency_key"`
}

type accrueRequest struct {
	AsOfDate string `json:"as_of_date"`
}

type monthEndRequest struct {
	EffectiveDate string `json:"effective_date"`
}

// Open handles POST /deposit/accounts.
func (h *DepositHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openDepositRequest
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

	snap, err := h.depositSvc.Open(r.Context(), domain.OpenDepositParams{
		OpenedOn:           openedOn,
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

// Deposit handles POST /deposit/accounts/{accountID}/deposit.
func (h *DepositHandler) Deposit(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.depositSvc.Deposit(r.Context(), domain.PostDepositParams{
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

// Withdraw handles POST /deposit/accounts/{accountID}/withdraw.
func (h *DepositHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.depositSvc.Withdraw(r.Context(), domain.PostWithdrawalParams{
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

// Accrue handles POST /deposit/accounts/{accountID}/accrue.
func (h *DepositHandler) Accrue(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.depositSvc.Accrue(r.Context(), domain.AccrueParams{
		AccountID: chi.URLParam(r, "accountID"),
		AsOfDate:  asOf,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// MonthEnd handles POST /deposit/accounts/{accountID}/month-end.
func (h *DepositHandler) MonthEnd(w http.ResponseWriter, r *http.Request) {
	var req monthEndRequest
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

	snap, err := h.depositSvc.ApplyMonthEnd(r.Context(), domain.MonthEndParams{
		AccountID:     chi.URLParam(r, "accountID"),
		EffectiveDate: effective,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// Get handles GET /deposit/accounts/{accountID}.
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.depositSvc.Get(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

// List handles GET /deposit/accounts.
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, total, err := h.depositSvc.List(r.Context(), limit, offset)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
