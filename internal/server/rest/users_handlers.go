package rest

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/server/services"
)

type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   bool     `json:"active"`
}

type createUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
}

// Active is a pointer so that an explicit false is told apart from absent.
type updateUserRequest struct {
	ID       string   `json:"id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
	Active   *bool    `json:"active" validate:"required"`
	Password string   `json:"password"`
}

type deleteRequest struct {
	ID string `json:"id" validate:"required"`
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse{ID: u.ID, Username: u.UserName, Roles: u.Roles, Active: u.Active})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(w, r, &req, "All fields are required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Create(r.Context(), services.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, fmt.Sprintf("New user %s created", user.UserName))
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decode(w, r, &req, "All fields are required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Update(r.Context(), services.UpdateUserInput{
		ID:       req.ID,
		Username: req.Username,
		Roles:    req.Roles,
		Active:   *req.Active,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("%s updated", user.UserName))
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decode(w, r, &req, "User ID required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Delete(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Username %s with ID %s deleted", user.UserName, user.ID))
}
