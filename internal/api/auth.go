package api

import (
	"errors"
	"net/http"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/identity"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/zlog"
)

type ownerHandler func(w http.ResponseWriter, r *http.Request, user *queries.User)

// withOwner authenticates the request against the identity gateway and
// resolves the local user row. The stored bearer token is refreshed as a
// side effect so background agent work uses the owner's current credential.
func (s *Service) withOwner(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			apierror.NewUnauthorizedError("").WriteJSON(w)
			return
		}

		subject, err := s.identity.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				apierror.NewUnauthorizedError("invalid token").WriteJSON(w)
				return
			}
			s.logger.Error("identity gateway failure", "error", err)
			apierror.NewInternalError().WriteJSON(w)
			return
		}

		user, err := s.orch.ResolveUser(r.Context(), subject, token)
		if err != nil {
			s.logger.Error("failed to resolve user", "subject", subject, "error", err)
			apierror.NewInternalError().WriteJSON(w)
			return
		}

		ctx := zlog.With(r.Context(), s.logger.With("user_id", user.ID.String()))
		next(w, r.WithContext(ctx), user)
	}
}
