package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/staffimport/pkg/composables"
	"github.com/iota-uz/staffimport/pkg/configuration"
	"github.com/iota-uz/staffimport/pkg/httpapi"
)

// WithTenantFromHeaders resolves the tenant and acting user from trusted
// gateway headers. The gateway upstream is responsible for authentication;
// this boundary only requires the identifiers to be present and well-formed.
func WithTenantFromHeaders() mux.MiddlewareFunc {
	conf := configuration.Use()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(r.Header.Get(conf.TenantIDHeader))
			if err != nil || tenantID == uuid.Nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest,
					"TENANT_REQUIRED", "missing or malformed tenant header",
					map[string]string{"header": conf.TenantIDHeader})
				return
			}

			ctx := composables.WithTenantID(r.Context(), tenantID)

			if raw := r.Header.Get(conf.UserIDHeader); raw != "" {
				userID, err := uuid.Parse(raw)
				if err != nil {
					_ = httpapi.WriteError(w, http.StatusBadRequest,
						"USER_MALFORMED", "malformed user header",
						map[string]string{"header": conf.UserIDHeader})
					return
				}
				ctx = composables.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
