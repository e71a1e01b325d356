package rbac

import (
	"fmt"
	"net/http"

	"github.com/mind-engage/lessonquiz/internal/apierr"
)

// Require enforces a single permission of the default policy.
func Require(perm string) func(http.Handler) http.Handler {
	return DefaultPolicy.RequireAny(perm)
}

// RequireAny answers 403 unless the role on the request context holds at
// least one of perms.
func (p Policy) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if !p.Allows(role, perms...) {
				apierr.Write(w, apierr.New(http.StatusForbidden, "forbidden",
					fmt.Errorf("role %q lacks %v", role, perms)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
