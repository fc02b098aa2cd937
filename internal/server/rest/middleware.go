package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type identityKey struct{}

// Identity is the caller as described by a verified access token.
type Identity struct {
	Username string
	Roles    []string
}

// IdentityFromContext returns the identity stored by VerifyJWT.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// VerifyJWT requires "Authorization: Bearer <access token>". A missing or
// malformed header is 401; a token that fails verification is 403.
func (s *HTTPServer) VerifyJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := s.codec.VerifyAccess(token)
		if err != nil {
			s.logger.Debug(r.Context(), "access token rejected", "error", err)
			writeMessage(w, http.StatusForbidden, "Forbidden")
			return
		}

		ctx := withIdentity(r.Context(), Identity{
			Username: claims.UserInfo.Username,
			Roles:    claims.UserInfo.Roles,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles lets the request through when the caller holds at least one
// of roles. It must run after VerifyJWT.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			caller := models.User{UserName: id.Username, Roles: id.Roles}
			for _, role := range roles {
				if caller.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeMessage(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
