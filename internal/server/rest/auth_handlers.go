package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorValidation):
		return "bad_request"
	case errors.Is(err, common.ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req, "All fields are required"); err != nil {
		s.metrics.AuthEvent("login", resultLabel(err))
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Username, req.Password)
	s.metrics.AuthEvent("login", resultLabel(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.cookies.Attach(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := s.cookies.Read(r)
	if !ok {
		s.metrics.AuthEvent("refresh", resultLabel(common.ErrorUnauthorized))
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	access, err := s.auth.Refresh(r.Context(), token)
	s.metrics.AuthEvent("refresh", resultLabel(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

// handleLogout never validates the token; a present cookie is always cleared.
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := s.cookies.Read(r)
	if !ok {
		s.metrics.AuthEvent("logout", "no_cookie")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.auth.Logout(r.Context(), token)
	s.cookies.Clear(w)
	s.metrics.AuthEvent("logout", "success")
	writeMessage(w, http.StatusOK, "Cookie cleared")
}
