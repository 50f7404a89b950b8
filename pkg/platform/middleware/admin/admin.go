package admin

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "kyc-gateway/pkg/domain-errors"
	"kyc-gateway/pkg/platform/httputil"
	"kyc-gateway/pkg/requestcontext"
)

// OfficerValidator resolves a bearer token to a compliance officer id.
type OfficerValidator interface {
	ValidateOfficerToken(token string) (string, error)
}

// RequireOfficer rejects requests without a valid officer token and stores the
// officer id as the request actor.
func RequireOfficer(validator OfficerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "admin request without bearer token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			officerID, err := validator.ValidateOfficerToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithActorID(ctx, officerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
