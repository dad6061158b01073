package models

import "time"

// MediaItem is the immutable record of one encrypted upload.
//
// ContentRef addresses the ciphertext in the blob store. WrappedKeyOwner is
// the item's symmetric key wrapped under the owner's wrap key; the server
// never sees the plaintext key. ContentHash is the hex SHA-256 digest of the
// blob bytes and Signature is the owner's ECDSA signature over that digest,
// both checked at creation time. A changed file requires a new item; there
// is no update path.
type MediaItem struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	ContentRef      string
	WrappedKeyOwner []byte
	ContentHash     string
	Signature       []byte
	CreatedAt       time.Time
}
