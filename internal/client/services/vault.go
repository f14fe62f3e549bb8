package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sevr/internal/client/client"
	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/vaultcrypto"
)

// MinPasswordLength is the shortest accepted vault password.
const MinPasswordLength = 8

// VaultSession holds the vault key while the vault is unlocked. The key and
// the password never leave the process; the server sees salt, verifiers and
// ciphertext only.
type VaultSession struct {
	client client.Client

	mu     sync.Mutex
	status *client.VaultStatus
	key    []byte
}

func NewVaultSession(c client.Client) *VaultSession {
	return &VaultSession{client: c}
}

func checkNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return client.ErrPasswordTooShort
	}
	if password != confirm {
		return client.ErrPasswordMismatch
	}
	return nil
}

// newKeys derives a fresh key from password and returns it with the salt
// and verifier to publish.
func newKeys(password string) ([]byte, client.VaultKeys, error) {
	salt, err := vaultcrypto.GenerateSalt()
	if err != nil {
		return nil, client.VaultKeys{}, err
	}
	key := vaultcrypto.DeriveKey(password, salt)
	verifier, err := vaultcrypto.CreateVerifier(key)
	if err != nil {
		return nil, client.VaultKeys{}, err
	}
	return key, client.VaultKeys{
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Verifier: verifier,
	}, nil
}

// Status fetches the vault key metadata and remembers it for Unlock.
func (v *VaultSession) Status(ctx context.Context) (*client.VaultStatus, error) {
	st, err := v.client.VaultStatus(ctx)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.status = st
	v.mu.Unlock()
	return st, nil
}

func (v *VaultSession) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key != nil
}

// Setup creates the vault keys, stores initial (when not nil) and leaves the
// vault unlocked. The returned recovery key is shown once and never stored.
// An existing vault is overwritten.
func (v *VaultSession) Setup(ctx context.Context, password, confirm string, initial any) (string, error) {
	if err := checkNewPassword(password, confirm); err != nil {
		return "", err
	}

	key, keys, err := newKeys(password)
	if err != nil {
		return "", err
	}
	recoveryKey, err := vaultcrypto.GenerateRecoveryKey()
	if err != nil {
		return "", err
	}
	keys.RecoveryVerifier, err = vaultcrypto.WrapKeyForRecovery(key, recoveryKey)
	if err != nil {
		return "", err
	}

	if err := v.client.SetupVault(ctx, keys, true); err != nil {
		return "", err
	}

	v.setUnlocked(key, &client.VaultStatus{
		IsSetUp:          true,
		Salt:             &keys.Salt,
		Verifier:         &keys.Verifier,
		RecoveryVerifier: &keys.RecoveryVerifier,
	})

	if initial != nil {
		if _, err := v.Save(ctx, initial); err != nil {
			return "", fmt.Errorf("save initial data: %w", err)
		}
	}
	return recoveryKey, nil
}

func (v *VaultSession) currentStatus(ctx context.Context) (*client.VaultStatus, error) {
	v.mu.Lock()
	st := v.status
	v.mu.Unlock()
	if st != nil {
		return st, nil
	}
	return v.Status(ctx)
}

// Unlock checks password against the stored verifier. A wrong password gives
// ErrIncorrectPassword and nothing is written to the server.
func (v *VaultSession) Unlock(ctx context.Context, password string) error {
	st, err := v.currentStatus(ctx)
	if err != nil {
		return err
	}
	if !st.IsSetUp || st.Salt == nil || st.Verifier == nil {
		return client.ErrVaultNotSetUp
	}

	salt, err := base64.StdEncoding.DecodeString(*st.Salt)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	key := vaultcrypto.DeriveKey(password, salt)
	if !vaultcrypto.VerifyPassword(key, *st.Verifier) {
		common.WipeByteArray(key)
		return client.ErrIncorrectPassword
	}

	v.setUnlocked(key, st)
	return nil
}

// VerifyRecoveryKey checks a recovery key against the stored recovery
// verifier. On success the caller is expected to run Setup with a new
// password; the old data cannot be decrypted without the old password.
func (v *VaultSession) VerifyRecoveryKey(ctx context.Context, recoveryKey string) error {
	st, err := v.currentStatus(ctx)
	if err != nil {
		return err
	}
	if !st.IsSetUp {
		return client.ErrVaultNotSetUp
	}
	if st.RecoveryVerifier == nil || !vaultcrypto.VerifyRecoveryKey(recoveryKey, *st.RecoveryVerifier) {
		return client.ErrInvalidRecoveryKey
	}
	return nil
}

// ChangePassword re-keys the unlocked vault. Stored data is decrypted with
// the current key and re-encrypted with the new one in the same request.
// The recovery verifier does not depend on the password and is kept.
func (v *VaultSession) ChangePassword(ctx context.Context, password, confirm string) error {
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}

	v.mu.Lock()
	oldKey, st := v.key, v.status
	v.mu.Unlock()
	if oldKey == nil {
		return client.ErrVaultLocked
	}

	var payload json.RawMessage
	found, err := v.load(ctx, oldKey, &payload)
	if err != nil {
		return err
	}

	key, keys, err := newKeys(password)
	if err != nil {
		return err
	}
	if st != nil && st.RecoveryVerifier != nil {
		keys.RecoveryVerifier = *st.RecoveryVerifier
	}

	var blob *client.VaultData
	if found {
		sealed, err := vaultcrypto.Encrypt(key, payload)
		if err != nil {
			return err
		}
		blob = &client.VaultData{Data: sealed.Data, IV: sealed.IV}
	}

	if err := v.client.ChangePassword(ctx, keys, blob); err != nil {
		return err
	}

	status := &client.VaultStatus{IsSetUp: true, Salt: &keys.Salt, Verifier: &keys.Verifier}
	if keys.RecoveryVerifier != "" {
		status.RecoveryVerifier = &keys.RecoveryVerifier
	}
	v.setUnlocked(key, status)
	return nil
}

// Reset drops the vault keys and data on the server and locks the session.
func (v *VaultSession) Reset(ctx context.Context) error {
	if err := v.client.ResetVault(ctx); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wipe()
	v.status = nil
	return nil
}

// Load decrypts the stored payload into out. It reports false when nothing
// has been stored yet.
func (v *VaultSession) Load(ctx context.Context, out any) (bool, error) {
	v.mu.Lock()
	key := v.key
	v.mu.Unlock()
	if key == nil {
		return false, client.ErrVaultLocked
	}
	return v.load(ctx, key, out)
}

func (v *VaultSession) load(ctx context.Context, key []byte, out any) (bool, error) {
	blob, err := v.client.GetVaultData(ctx)
	if err != nil {
		return false, err
	}
	if blob == nil || blob.Data == "" || blob.IV == "" {
		return false, nil
	}
	if err := vaultcrypto.Decrypt(key, &vaultcrypto.Sealed{IV: blob.IV, Data: blob.Data}, out); err != nil {
		return false, err
	}
	return true, nil
}

// Save encrypts data under the vault key and replaces the stored blob.
func (v *VaultSession) Save(ctx context.Context, data any) (time.Time, error) {
	v.mu.Lock()
	key := v.key
	v.mu.Unlock()
	if key == nil {
		return time.Time{}, client.ErrVaultLocked
	}

	sealed, err := vaultcrypto.Encrypt(key, data)
	if err != nil {
		return time.Time{}, err
	}
	return v.client.PutVaultData(ctx, sealed.Data, sealed.IV)
}

// Lock forgets the key.
func (v *VaultSession) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wipe()
}

func (v *VaultSession) setUnlocked(key []byte, st *client.VaultStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wipe()
	v.key = key
	v.status = st
}

// wipe must be called with mu held.
func (v *VaultSession) wipe() {
	if v.key != nil {
		common.WipeByteArray(v.key)
		v.key = nil
	}
}
