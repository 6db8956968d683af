package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/device-inventory/internal/user"
)

// handleListUsers returns every registered user.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleCreateUser registers a user and returns it with 201.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in user.NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	u, err := s.users.Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}
