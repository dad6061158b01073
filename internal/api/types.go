// Package api defines the JSON wire types shared by the MediaVault server
// and its clients, together with the error code vocabulary used to carry
// typed failures over HTTP.
package api

import "time"

// Error is the JSON body returned for every non-2xx response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes. Clients match on Code, not on Message or HTTP status.
const (
	CodeNotFound            = "not_found"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeConflict            = "conflict"
	CodeInvalidState        = "invalid_state"
	CodeSelfRequest         = "self_request"
	CodeNoPublicKey         = "no_public_key_published"
	CodeContentUnavailable  = "content_unavailable"
	CodeIntegrityMismatch   = "integrity_mismatch"
	CodeSignatureInvalid    = "signature_invalid"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
	CodeTokenExpired        = "token_expired"
	CodeRefreshTokenExpired = "refresh_token_expired"
)

type RegisterRequest struct {
	UserName string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type SaltRequest struct {
	UserName string `json:"username"`
}

type SaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	UserName string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PublishKeysRequest carries PEM-encoded public keys only; private halves
// never leave the client.
type PublishKeysRequest struct {
	WrapPublicKey []byte `json:"wrap_public_key"`
	SignPublicKey []byte `json:"sign_public_key"`
}

type KeysResponse struct {
	UserID        string    `json:"user_id"`
	WrapPublicKey []byte    `json:"wrap_public_key"`
	SignPublicKey []byte    `json:"sign_public_key"`
	KeyVersion    int64     `json:"key_version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MediaItem is the metadata view of an item. WrappedKeyOwner is present
// only when the caller is the owner fetching a single item.
type MediaItem struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ContentHash     string    `json:"content_hash"`
	WrappedKeyOwner []byte    `json:"wrapped_key_owner,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type VerifyResponse struct {
	Digest         string `json:"digest"`
	DigestMatches  bool   `json:"digest_matches"`
	SignatureValid bool   `json:"signature_valid"`
}

type AccessRequest struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	RequesterID string     `json:"requester_id"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type ApproveRequest struct {
	WrappedKey []byte `json:"wrapped_key"`
}

// AccessResponse answers "what may I do with this item". WrappedKey is set
// only when Level is "granted".
type AccessResponse struct {
	Level      string `json:"level"`
	WrappedKey []byte `json:"wrapped_key,omitempty"`
}

// Multipart field names for item upload.
const (
	UploadFieldContent    = "content"
	UploadFieldTitle      = "title"
	UploadFieldDescr      = "description"
	UploadFieldDigest     = "digest"
	UploadFieldSignature  = "signature"
	UploadFieldWrappedKey = "wrapped_key"
)
