package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sevr/internal/client/models"
	"github.com/dmitrijs2005/sevr/internal/common"
)

// readNewPassword asks for a password twice.
func (a *App) readNewPassword() (string, string, error) {
	pw, err := getPassword("New vault password (at least 8 characters)", a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(pw)

	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(confirm)

	return string(pw), string(confirm), nil
}

// Unlock opens the vault, setting it up first when the account has none.
func (a *App) Unlock(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if a.isUnlocked() {
		fmt.Fprintln(a.out, "Vault is already unlocked")
		return nil
	}

	st, err := a.vault.Status(ctx)
	if err != nil {
		return err
	}
	if !st.IsSetUp {
		return a.setup(ctx)
	}

	pw, err := getPassword("Vault password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.vault.Unlock(ctx, string(pw)); err != nil {
		return err
	}
	return a.load(ctx)
}

func (a *App) setup(ctx context.Context) error {
	fmt.Fprintln(a.out, "Your vault is not set up yet. Choose a password; it cannot be reset by the server.")
	pw, confirm, err := a.readNewPassword()
	if err != nil {
		return err
	}

	a.items = models.Services{}
	recoveryKey, err := a.vault.Setup(ctx, pw, confirm, a.items)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Vault is ready. Your recovery key is:")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "    "+recoveryKey)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Store it somewhere safe. It is shown only once.")
	return nil
}

func (a *App) load(ctx context.Context) error {
	var items models.Services
	found, err := a.vault.Load(ctx, &items)
	if err != nil {
		return err
	}
	if !found {
		items = models.Services{}
	}
	a.items = items
	fmt.Fprintf(a.out, "Vault unlocked: %d services, %d pending\n", len(items), items.Pending())
	return nil
}

// Recover checks a recovery key and sets up the vault with a new password.
// Data sealed under the forgotten password cannot be read and is replaced.
func (a *App) Recover(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	key, err := getSimpleText(a.reader, "Enter recovery key", a.out)
	if err != nil {
		return err
	}
	if err := a.vault.VerifyRecoveryKey(ctx, key); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Recovery key verified. Please set up a new vault password.")
	return a.setup(ctx)
}

func (a *App) ChangePassword(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	pw, confirm, err := a.readNewPassword()
	if err != nil {
		return err
	}
	if err := a.vault.ChangePassword(ctx, pw, confirm); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

// Reset wipes the vault on the server after confirmation.
func (a *App) Reset(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	ok, err := getConfirmation(a.reader, "This deletes all vault data. Continue?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.vault.Reset(ctx); err != nil {
		return err
	}
	a.items = nil
	fmt.Fprintln(a.out, "Vault reset. Type 'unlock' to set it up again.")
	return nil
}

func (a *App) Lock(ctx context.Context) error {
	a.vault.Lock()
	a.items = nil
	fmt.Fprintln(a.out, "Vault locked")
	return nil
}
