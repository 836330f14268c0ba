package mw

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// RequirePlan returns middleware that rejects users below the required
// plan with an upgrade message. Must run after Auth.
func RequirePlan(entitlements *service.EntitlementService, required models.Plan) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ent, err := entitlements.Authorize(r.Context(), claims.UserID, required)
			if err != nil {
				if errors.Is(err, service.ErrNotEntitled) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error":        "plan does not include this feature",
						"plan":         string(ent.Plan),
						"requiredPlan": string(required),
						"message":      upgradeMessage(required),
					})
					return
				}
				http.Error(w, `{"error":"failed to resolve entitlement"}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func upgradeMessage(required models.Plan) string {
	if required == models.PlanPro {
		return "This feature requires the Pro plan. Upgrade to unlock unlimited messages and voice."
	}
	return "This feature is not available on your current plan."
}
