package cryptox

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
)

// SignDigest signs the hex content digest with the owner's ECDSA P-256 key.
// The signature covers the hex string, not the raw digest bytes, so a
// verifier only ever needs the stored digest column. Returns an ASN.1 DER
// encoded signature.
func SignDigest(digest string, priv *ecdsa.PrivateKey) ([]byte, error) {
	sum := sha256.Sum256([]byte(digest))
	return ecdsa.SignASN1(rand.Reader, priv, sum[:])
}

// VerifyDigestSignature reports whether sig is a valid signature over the
// hex digest under pub. Malformed signature bytes yield false, never a
// panic or an error.
func VerifyDigestSignature(digest string, sig []byte, pub *ecdsa.PublicKey) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	sum := sha256.Sum256([]byte(digest))
	return ecdsa.VerifyASN1(pub, sum[:], sig)
}
