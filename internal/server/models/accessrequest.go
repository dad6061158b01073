package models

import "time"

// RequestState enumerates the lifecycle of an access request.
// Pending is the only non-terminal state; a rejected request may be
// superseded by a brand-new pending one for the same (item, requester)
// pair, an approved one is final.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestRejected RequestState = "rejected"
)

// AccessRequest tracks one requester's attempt to obtain the content key
// of one media item.
//
// WrappedKey is the item's symmetric key re-wrapped under the requester's
// wrap key. Invariant: WrappedKey is non-empty iff State is approved; the
// approve transition sets both atomically and reject clears the field.
type AccessRequest struct {
	ID          string
	ItemID      string
	RequesterID string
	State       RequestState
	WrappedKey  []byte
	CreatedAt   time.Time
	DecidedAt   *time.Time
}

// Terminal reports whether no further transitions are possible for this
// request instance.
func (r *AccessRequest) Terminal() bool {
	return r.State != RequestPending
}

// WrappedKeyForRequester returns the granted key, present only on an
// approved request.
func (r *AccessRequest) WrappedKeyForRequester() ([]byte, bool) {
	if r.State != RequestApproved || len(r.WrappedKey) == 0 {
		return nil, false
	}
	return r.WrappedKey, true
}

// AccessLevel is the result of an access query for (item, user).
type AccessLevel string

const (
	AccessOwner   AccessLevel = "owner"
	AccessGranted AccessLevel = "granted"
	AccessNone    AccessLevel = "none"
)

// Access pairs an AccessLevel with the wrapped key for granted requesters.
// WrappedKey is set only when Level is AccessGranted.
type Access struct {
	Level      AccessLevel
	WrappedKey []byte
}
