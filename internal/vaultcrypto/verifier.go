package vaultcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// purpose names a fixed-IV use. The IV is derived from it, so each purpose
// must seal exactly one constant marker per key.
type purpose string

const (
	purposePassword purpose = "sevr-password-verifier"
	purposeRecovery purpose = "sevr-recovery-wrap"

	passwordMarker = "sevr-verify"
	recoveryMarker = "KEY_RECOVERY_MARKER"
)

func (p purpose) iv() []byte {
	sum := sha256.Sum256([]byte(p))
	return sum[:IVSize]
}

// sealFixed encrypts marker under a deterministic IV. Never use it for
// user data: IV reuse across different plaintexts breaks GCM.
func sealFixed(key []byte, p purpose, marker string) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(aesgcm.Seal(nil, p.iv(), []byte(marker), nil)), nil
}

func openFixed(key []byte, p purpose, sealed, marker string) bool {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return false
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return false
	}
	plaintext, err := aesgcm.Open(nil, p.iv(), data, nil)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(plaintext, []byte(marker)) == 1
}

// CreateVerifier returns a value the server can store to let the client
// check a password later. The same key always gives the same verifier.
func CreateVerifier(key []byte) (string, error) {
	return sealFixed(key, purposePassword, passwordMarker)
}

// VerifyPassword reports whether key opens verifier. It never fails loudly.
func VerifyPassword(key []byte, verifier string) bool {
	return openFixed(key, purposePassword, verifier, passwordMarker)
}

// GenerateRecoveryKey returns a 32 character base64 string. It is shown to
// the user once and never sent to the server.
func GenerateRecoveryKey() (string, error) {
	b := make([]byte, recoveryKeySize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DeriveKeyFromRecovery uses the recovery key text as the password and the
// first 16 bytes of its decoded form as the salt.
func DeriveKeyFromRecovery(recoveryKey string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(recoveryKey)
	if err != nil || len(raw) < SaltSize {
		return nil, ErrInvalidRecoveryKey
	}
	return DeriveKey(recoveryKey, raw[:SaltSize]), nil
}

// WrapKeyForRecovery produces the recovery verifier stored next to the
// password verifier. The result depends only on recoveryKey; key is unused.
// It proves possession of the recovery key, not of the vault key.
func WrapKeyForRecovery(key []byte, recoveryKey string) (string, error) {
	wrapper, err := DeriveKeyFromRecovery(recoveryKey)
	if err != nil {
		return "", err
	}
	return sealFixed(wrapper, purposeRecovery, recoveryMarker)
}

func VerifyRecoveryKey(recoveryKey, wrapped string) bool {
	wrapper, err := DeriveKeyFromRecovery(recoveryKey)
	if err != nil {
		return false
	}
	return openFixed(wrapper, purposeRecovery, wrapped, recoveryMarker)
}
