// AngelaMos | 2026
// guard.go

package admin

import (
	"net/http"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

// RequirePermission admits requests whose authenticated user holds perm.
// It must run after the authenticator.
func (s *Service) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := middleware.GetUserID(r.Context())
			if uid == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			ok, err := s.HasPermission(r.Context(), uid, perm)
			if err != nil {
				core.InternalServerError(w, err)
				return
			}
			if !ok {
				s.logger.Warn("admin permission denied",
					"user_id", uid,
					"permission", string(perm),
					"path", r.URL.Path,
				)
				core.JSONError(w, core.ForbiddenError("missing permission "+string(perm)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
