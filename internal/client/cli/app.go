// Package cli implements the interactive MediaVault client. All key
// handling happens here: private keys live in the local keystore and only
// public halves and wrapped keys ever reach the server.
package cli

import (
	"bufio"
	"crypto/ecdsa"
	"crypto/rsa"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/client/client"
	"github.com/dmitrijs2005/mediavault/internal/client/config"
	"github.com/dmitrijs2005/mediavault/internal/client/keystore"
)

type App struct {
	config   *config.Config
	api      *client.Client
	keystore *keystore.Keystore

	userName string
	wrapPriv *rsa.PrivateKey
	signPriv *ecdsa.PrivateKey

	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ks, err := keystore.New(c.KeyDir)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		api:      client.New(c.ServerEndpointAddr),
		keystore: ks,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn() && a.wrapPriv != nil
}

func (a *App) Run() {
	a.Root()
}
