package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register creates a new account. The password never leaves the machine:
// the server stores a derived verifier, and the same password seals the
// local keystore.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer wipe(password)

	salt := common.GenerateRandByteArray(32)
	verifier := cryptox.DeriveKey(password, salt)

	if _, err := a.api.Register(ctx, userName, salt, verifier); err != nil {
		return err
	}
	fmt.Println("Account created.")
	return a.login(ctx, userName, password)
}

// Login authenticates against the server and unlocks the local keystore.
// First login generates a keypair set and publishes the public halves.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer wipe(password)

	return a.login(ctx, userName, password)
}

func (a *App) login(ctx context.Context, userName string, password []byte) error {
	salt, err := a.api.GetSalt(ctx, userName)
	if err != nil {
		return err
	}
	if err := a.api.Login(ctx, userName, cryptox.DeriveKey(password, salt)); err != nil {
		return err
	}

	if err := a.unlockKeys(ctx, password); err != nil {
		a.api.Logout()
		return err
	}

	a.userName = userName
	fmt.Println("Success!")
	return nil
}

// unlockKeys loads the sealed keypairs, generating and publishing a fresh
// set on first use.
func (a *App) unlockKeys(ctx context.Context, password []byte) error {
	if a.keystore.Exists() {
		wrapPriv, signPriv, err := a.keystore.Load(password)
		if err != nil {
			return err
		}
		a.wrapPriv, a.signPriv = wrapPriv, signPriv
		return nil
	}

	wrapPriv, err := cryptox.GenerateWrapKeyPair()
	if err != nil {
		return err
	}
	signPriv, err := cryptox.GenerateSignKeyPair()
	if err != nil {
		return err
	}
	if err := a.keystore.Save(password, wrapPriv, signPriv); err != nil {
		return err
	}

	wrapPEM, err := cryptox.EncodePublicKeyPEM(&wrapPriv.PublicKey)
	if err != nil {
		return err
	}
	signPEM, err := cryptox.EncodePublicKeyPEM(&signPriv.PublicKey)
	if err != nil {
		return err
	}
	if _, err := a.api.PublishKeys(ctx, wrapPEM, signPEM); err != nil {
		return err
	}
	fmt.Println("Generated and published a new key set.")

	a.wrapPriv, a.signPriv = wrapPriv, signPriv
	return nil
}

func (a *App) Logout() {
	a.api.Logout()
	a.userName = ""
	a.wrapPriv = nil
	a.signPriv = nil
	fmt.Println("Logged out.")
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
