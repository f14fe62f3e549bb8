package http

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

type vaultStatusResponse struct {
	IsSetUp          bool    `json:"isSetUp"`
	Salt             *string `json:"salt"`
	Verifier         *string `json:"verifier"`
	RecoveryVerifier *string `json:"recoveryVerifier"`
}

type vaultSetupRequest struct {
	Salt             string `json:"salt"`
	Verifier         string `json:"verifier"`
	RecoveryVerifier string `json:"recoveryVerifier"`
	AllowOverwrite   bool   `json:"allowOverwrite"`
}

type changePasswordRequest struct {
	Salt             string `json:"salt"`
	Verifier         string `json:"verifier"`
	RecoveryVerifier string `json:"recoveryVerifier"`
	EncryptedData    string `json:"encryptedData"`
	IV               string `json:"iv"`
}

type vaultDataRequest struct {
	Data string `json:"data"`
	IV   string `json:"iv"`
}

type vaultDataResponse struct {
	Data      *string    `json:"data"`
	IV        string     `json:"iv,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type vaultPutResponse struct {
	Success   bool      `json:"success"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func vaultKeys(salt, verifier, recoveryVerifier string) models.VaultKeys {
	keys := models.VaultKeys{Salt: salt, Verifier: verifier}
	if recoveryVerifier != "" {
		keys.RecoveryVerifier = &recoveryVerifier
	}
	return keys
}

func (s *HTTPServer) vaultStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	st, err := s.vault.Status(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err, "Failed to get encryption status")
		return
	}
	writeJSON(w, http.StatusOK, vaultStatusResponse{
		IsSetUp:          st.IsSetUp,
		Salt:             st.Salt,
		Verifier:         st.Verifier,
		RecoveryVerifier: st.RecoveryVerifier,
	})
}

func (s *HTTPServer) vaultSetup(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req vaultSetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Salt == "" || req.Verifier == "" {
		errorJSON(w, http.StatusBadRequest, msgSaltAndVerifier)
		return
	}

	keys := vaultKeys(req.Salt, req.Verifier, req.RecoveryVerifier)
	if err := s.vault.Setup(r.Context(), claims.UserID, keys, req.AllowOverwrite); err != nil {
		s.writeError(w, r, err, "Failed to set up encryption")
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *HTTPServer) vaultReset(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	if err := s.vault.Reset(r.Context(), claims.UserID); err != nil {
		s.writeError(w, r, err, "Failed to reset encryption")
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *HTTPServer) vaultChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Salt == "" || req.Verifier == "" {
		errorJSON(w, http.StatusBadRequest, msgSaltAndVerifier)
		return
	}

	var blob *models.VaultBlob
	if req.EncryptedData != "" && req.IV != "" {
		blob = &models.VaultBlob{Data: req.EncryptedData, IV: req.IV}
	}

	keys := vaultKeys(req.Salt, req.Verifier, req.RecoveryVerifier)
	if err := s.vault.ChangePassword(r.Context(), claims.UserID, keys, blob); err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *HTTPServer) vaultGetData(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	blob, err := s.vault.GetData(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err, "Failed to get encrypted data")
		return
	}
	if blob == nil {
		writeJSON(w, http.StatusOK, vaultDataResponse{})
		return
	}
	writeJSON(w, http.StatusOK, vaultDataResponse{Data: &blob.Data, IV: blob.IV, UpdatedAt: &blob.UpdatedAt})
}

func (s *HTTPServer) vaultPutData(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req vaultDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Data == "" || req.IV == "" {
		errorJSON(w, http.StatusBadRequest, msgDataAndIVMissing)
		return
	}

	at, err := s.vault.PutData(r.Context(), claims.UserID, req.Data, req.IV)
	if err != nil {
		s.writeError(w, r, err, "Failed to save encrypted data")
		return
	}
	writeJSON(w, http.StatusOK, vaultPutResponse{Success: true, UpdatedAt: at})
}
