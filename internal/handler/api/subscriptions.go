package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/handler"
)

// UserIDParam is the path parameter holding the application user id.
const UserIDParam = "userID"

// SubscriptionFinder is satisfied by domain.SubscriptionStore.
type SubscriptionFinder interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
}

// SubscriptionHandler serves stored subscription records to trusted callers.
type SubscriptionHandler struct {
	store SubscriptionFinder
}

func NewSubscriptionHandler(store SubscriptionFinder) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

// GetByUser handles GET /api/subscriptions/users/{userID} and returns the
// user's most recently updated record.
func (h *SubscriptionHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue(UserIDParam)
	if userID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("subscriptions.get_by_user", "user id is required"))
		return
	}

	sub, err := h.store.FindByUserID(r.Context(), userID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(sub)
}
