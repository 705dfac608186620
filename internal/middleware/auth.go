package middleware

import (
	"net/http"
	"slices"

	"bitebuddy-be/internal/auth"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"
)

// AuthMiddleware rejects requests without a valid access token and stores the
// caller's identity in the request context.
func AuthMiddleware(tokens *user.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token")
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			ctx = logger.WithActor(ctx, claims.UserID, claims.Role)
			recordActor(ctx, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := user.Role(utils.GetUserRoleFromContext(r.Context()))
			if !slices.Contains(roles, role) {
				utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
