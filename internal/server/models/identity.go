package models

import "time"

// Identity holds the current public key material published by a user.
//
// WrapPublicKey is the RSA-2048 key other parties wrap symmetric content
// keys under (OAEP). SignPublicKey is the ECDSA P-256 key content
// signatures are verified against. Both are PKIX PEM blocks and are
// published together as one atomic set.
//
// KeyVersion increments on every publish. Rotation does not re-wrap keys
// bound to already-approved requests; only the latest set is kept.
type Identity struct {
	UserID        string
	WrapPublicKey []byte
	SignPublicKey []byte
	KeyVersion    int64
	UpdatedAt     time.Time
}

// HasKeys reports whether the identity can be an approval target.
func (i *Identity) HasKeys() bool {
	return i != nil && len(i.WrapPublicKey) > 0 && len(i.SignPublicKey) > 0
}
