// Package keystore stores the client's private keys on disk, sealed with a
// key derived from the user's password. The server never sees these files.
package keystore

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/filex"
)

const (
	wrapKeyFile = "wrap.key"
	signKeyFile = "sign.key"
	saltSize    = 32
)

var ErrNoKeys = errors.New("no stored keys")

// Keystore persists one wrap keypair and one sign keypair per directory.
// Each file holds the KDF salt followed by the sealed PKCS#8 PEM.
type Keystore struct {
	dir string
}

func New(dir string) (*Keystore, error) {
	if err := filex.EnsurePrivateDir(dir); err != nil {
		return nil, err
	}
	return &Keystore{dir: dir}, nil
}

// Exists reports whether both key files are present.
func (k *Keystore) Exists() bool {
	for _, name := range []string{wrapKeyFile, signKeyFile} {
		if _, err := os.Stat(filepath.Join(k.dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Save seals both private keys under password and writes them to disk,
// replacing any previous set.
func (k *Keystore) Save(password []byte, wrapPriv *rsa.PrivateKey, signPriv *ecdsa.PrivateKey) error {
	wrapPEM, err := cryptox.EncodePrivateKeyPEM(wrapPriv)
	if err != nil {
		return err
	}
	signPEM, err := cryptox.EncodePrivateKeyPEM(signPriv)
	if err != nil {
		return err
	}
	if err := k.writeSealed(wrapKeyFile, password, wrapPEM); err != nil {
		return err
	}
	return k.writeSealed(signKeyFile, password, signPEM)
}

// Load opens both key files with password. A wrong password surfaces as an
// open failure on the first file.
func (k *Keystore) Load(password []byte) (*rsa.PrivateKey, *ecdsa.PrivateKey, error) {
	wrapPEM, err := k.readSealed(wrapKeyFile, password)
	if err != nil {
		return nil, nil, err
	}
	signPEM, err := k.readSealed(signKeyFile, password)
	if err != nil {
		return nil, nil, err
	}

	wrapPriv, err := cryptox.ParseRSAPrivateKeyPEM(wrapPEM)
	if err != nil {
		return nil, nil, err
	}
	signPriv, err := cryptox.ParseECDSAPrivateKeyPEM(signPEM)
	if err != nil {
		return nil, nil, err
	}
	return wrapPriv, signPriv, nil
}

func (k *Keystore) writeSealed(name string, password, plain []byte) error {
	salt := common.GenerateRandByteArray(saltSize)
	sealed, err := cryptox.Seal(cryptox.DeriveKey(password, salt), plain)
	if err != nil {
		return err
	}
	data := append(salt, sealed...)
	return os.WriteFile(filepath.Join(k.dir, name), data, 0o600)
}

func (k *Keystore) readSealed(name string, password []byte) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(k.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoKeys
		}
		return nil, err
	}
	if len(data) <= saltSize {
		return nil, fmt.Errorf("key file %s is truncated", name)
	}
	salt, sealed := data[:saltSize], data[saltSize:]
	plain, err := cryptox.Open(cryptox.DeriveKey(password, salt), sealed)
	if err != nil {
		return nil, fmt.Errorf("cannot open key file %s: wrong password or corrupt file", name)
	}
	return plain, nil
}
