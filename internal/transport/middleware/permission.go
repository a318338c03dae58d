package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payroll-advance/internal/auth"
)

// RequirePermissions creates a middleware that passes when the user holds any
// of the named permissions.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.HasAnyPermission(permissions) {
				slog.Warn("access denied: user lacks required permissions",
					"user_id", user.ID,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasPayrollPermissions checks if user can work the payroll advance screens.
func HasPayrollPermissions(user *auth.User) bool {
	payrollPerms := []string{
		auth.PermViewAdvances,
		auth.PermApproveAdvance,
		auth.PermRejectAdvance,
		auth.PermRecordRepayment,
		auth.PermAdmin,
	}
	return user.HasAnyPermission(payrollPerms)
}
