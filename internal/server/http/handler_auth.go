package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

type userView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

type requestOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyOTPResponse struct {
	Success      bool     `json:"success"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         userView `json:"user"`
	IsNewUser    bool     `json:"isNewUser"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Success     bool     `json:"success"`
	AccessToken string   `json:"accessToken"`
	User        userView `json:"user"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: s.now().UTC()})
}

func (s *HTTPServer) requestOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		errorJSON(w, http.StatusBadRequest, msgEmailRequired)
		return
	}

	if err := s.auth.RequestOTP(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err, "Failed to send OTP")
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *HTTPServer) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		errorJSON(w, http.StatusBadRequest, msgEmailAndCode)
		return
	}

	res, err := s.auth.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		s.writeError(w, r, err, "Failed to verify OTP")
		return
	}

	writeJSON(w, http.StatusOK, verifyOTPResponse{
		Success:      true,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         newUserView(res.User),
		IsNewUser:    res.IsNewUser,
	})
}

func (s *HTTPServer) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		errorJSON(w, http.StatusBadRequest, msgRefreshRequired)
		return
	}

	access, user, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err, "Failed to refresh token")
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Success: true, AccessToken: access, User: newUserView(user)})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		errorJSON(w, http.StatusBadRequest, msgRefreshRequired)
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeError(w, r, err, "Failed to logout")
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}
