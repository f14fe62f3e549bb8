package http

import (
	"net/http"
	"time"
)

type meResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	IsAdmin   bool      `json:"isAdmin"`
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	u, err := s.accounts.Me(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, IsAdmin: u.IsAdmin})
}

func (s *HTTPServer) deleteMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	if err := s.accounts.Delete(r.Context(), claims.UserID); err != nil {
		s.writeError(w, r, err, "Failed to delete account")
		return
	}
	s.logger.Info(r.Context(), "account deleted", "user_id", claims.UserID)
	writeJSON(w, http.StatusOK, okResponse)
}
