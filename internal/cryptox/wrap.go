package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// WrapKey encrypts a symmetric content key under the recipient's RSA public
// key using RSA-OAEP with SHA-256. Only the holder of the matching private
// key can recover it.
func WrapKey(pub *rsa.PublicKey, key []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
}

// UnwrapKey recovers a symmetric content key wrapped with WrapKey.
func UnwrapKey(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
}
