package handler

import (
	"net/http"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/service"
)

// WebhookHandler manages webhook subscription endpoints.
type WebhookHandler struct {
	subSvc *service.SubscriptionService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(subSvc *service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{subSvc: subSvc}
}

type createSubscriptionRequest struct {
	TargetURL string `json:"target_url"`
}

type subscriptionResponse struct {
	ID        string `json:"id"`
	TargetURL string `json:"target_url"`
	Enabled   bool   `json:"enabled"`
}

func newSubscriptionResponse(sub *domain.WebhookSubscription) subscriptionResponse {
	return subscriptionResponse{ID: sub.ID, TargetURL: sub.TargetURL, Enabled: sub.Enabled}
}

// Create handles POST /webhooks/subscriptions.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	sub, err := h.subSvc.Create(r.Context(), req.TargetURL)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, newSubscriptionResponse(sub))
}

// List handles GET /webhooks/subscriptions.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	enabled, err := optBoolQuery(r, "enabled")
	if err != nil {
		RespondError(w, err)
		return
	}
	limit, offset := pageParams(r)

	subs, total, err := h.subSvc.List(r.Context(), domain.SubscriptionFilter{
		Enabled: enabled,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	items := make([]subscriptionResponse, 0, len(subs))
	for i := range subs {
		items = append(items, newSubscriptionResponse(&subs[i]))
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
