// Package cryptox implements the cryptographic building blocks shared by the
// MediaVault client and server: streaming content digests, ECDSA signatures
// over digests, RSA-OAEP key wrapping, and symmetric sealing of content and
// local key files.
//
// The server never handles plaintext symmetric keys or private key material;
// everything in wrap.go and aead.go runs on the client.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/dmitrijs2005/mediavault/internal/common"
)

// ComputeDigest streams r through SHA-256 in fixed-size chunks and returns
// the lowercase hex digest. Memory use is constant regardless of content
// size. The result is recomputed fresh on every call; nothing is cached.
func ComputeDigest(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, common.DigestChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
