package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
)

// RequirePermission lets the request through when the caller's role grants
// permission. AuthRequired must run first.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromRequest(r)
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if !user.HasPermission(actor.Role, permission) {
				response.HandleError(w, fmt.Errorf("%w: role '%s' lacks '%s'", user.ErrInsufficientPermissions, actor.Role, permission))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
