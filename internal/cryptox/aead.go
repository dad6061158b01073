package cryptox

import (
	"errors"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ContentKeySize is the size of a per-item symmetric content key.
const ContentKeySize = chacha20poly1305.KeySize

// NewContentKey returns a fresh random symmetric key for one media item.
func NewContentKey() []byte {
	return common.GenerateRandByteArray(ContentKeySize)
}

// Seal encrypts plain with XChaCha20-Poly1305 under key. The random nonce
// is prepended to the returned blob.
func Seal(key, plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(chacha20poly1305.NonceSizeX)
	return append(nonce, aead.Seal(nil, nonce, plain, nil)...), nil
}

// Open decrypts a blob produced by Seal.
func Open(key, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("cipher too short")
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	return aead.Open(nil, nonce, blob[chacha20poly1305.NonceSizeX:], nil)
}

// DeriveKey derives a 32-byte key from a passphrase and salt with argon2id.
// Used for the password verifier and for sealing the client key store.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}
