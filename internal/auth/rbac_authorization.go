package auth

import (
	"log/slog"
	"net/http"
)

// RBACAuthorization wraps route handlers with permission checks against the
// user already placed in the context by AuthMiddleware.
type RBACAuthorization struct {
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		checker: checker,
		logger:  logger,
	}
}

func (ra *RBACAuthorization) require(check func(userPermissions []string) bool, label string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context", "check", label)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !check(user.Permissions) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"check", label,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Middleware requires one named permission (admin always passes).
func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return ra.require(func(perms []string) bool {
		return ra.checker.HasAnyPermission(perms, []string{permission, PermAdmin})
	}, permission)
}

func (ra *RBACAuthorization) RequireApproveAdvance() func(http.Handler) http.Handler {
	return ra.require(ra.checker.CanApproveAdvances, PermApproveAdvance)
}

func (ra *RBACAuthorization) RequireRejectAdvance() func(http.Handler) http.Handler {
	return ra.require(ra.checker.CanRejectAdvances, PermRejectAdvance)
}

func (ra *RBACAuthorization) RequireRecordRepayment() func(http.Handler) http.Handler {
	return ra.require(ra.checker.CanRecordRepayments, PermRecordRepayment)
}

func (ra *RBACAuthorization) RequireDeleteHistory() func(http.Handler) http.Handler {
	return ra.require(ra.checker.CanDeleteHistory, PermDeleteHistory)
}

func (ra *RBACAuthorization) RequireViewAdvances() func(http.Handler) http.Handler {
	return ra.require(ra.checker.CanViewAllAdvances, PermViewAdvances)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.require(ra.checker.IsAdmin, PermAdmin)
}
