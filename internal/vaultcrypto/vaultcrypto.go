// Package vaultcrypto implements the client side of the vault key protocol.
//
// A 256-bit AES key is derived from the user's password with PBKDF2 and
// never leaves the client. The server only sees the salt, a verifier that
// proves knowledge of the key, a recovery verifier and AES-GCM ciphertext.
package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100_000
	KeySize    = 32
	SaltSize   = 16
	IVSize     = 12

	recoveryKeySize = 24
)

var (
	ErrInvalidRecoveryKey = errors.New("invalid recovery key")
	ErrDecrypt            = errors.New("unable to decrypt")
)

// DeriveKey stretches password into an AES-256 key.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Sealed is an encrypted payload as stored by the server.
type Sealed struct {
	IV   string `json:"iv"`
	Data string `json:"data"`
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt serializes v to JSON and seals it under key with a fresh random IV.
func Encrypt(key []byte, v any) (*Sealed, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return &Sealed{
		IV:   base64.StdEncoding.EncodeToString(iv),
		Data: base64.StdEncoding.EncodeToString(aesgcm.Seal(nil, iv, plaintext, nil)),
	}, nil
}

// Decrypt opens s with key and unmarshals the JSON payload into out.
// A wrong key and a corrupted payload both give ErrDecrypt.
func Decrypt(key []byte, s *Sealed, out any) error {
	iv, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(iv) != IVSize {
		return ErrDecrypt
	}
	data, err := base64.StdEncoding.DecodeString(s.Data)
	if err != nil {
		return ErrDecrypt
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, iv, data, nil)
	if err != nil {
		return ErrDecrypt
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
