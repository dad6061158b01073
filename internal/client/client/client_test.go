package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/auth"
	"github.com/dmitrijs2005/mediavault/internal/server/blob"
	"github.com/dmitrijs2005/mediavault/internal/server/config"
	"github.com/dmitrijs2005/mediavault/internal/server/httpserver"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
)

// newBackend runs the real HTTP API against in-memory storage.
func newBackend(t *testing.T, tokenValidity time.Duration) *Client {
	t.Helper()

	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  tokenValidity,
		RefreshTokenValidityDuration: time.Hour,
	}
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	rm := repomanager.NewMemoryRepositoryManager()
	store, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	srv := httpserver.New(cfg, log,
		services.NewUserService(nil, rm, cfg),
		services.NewIdentityService(nil, rm),
		services.NewMediaService(nil, rm, store),
		services.NewAccessService(nil, rm),
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func signupAndLogin(t *testing.T, c *Client, username, password string) {
	t.Helper()
	ctx := context.Background()

	salt := common.GenerateRandByteArray(32)
	verifier := cryptox.DeriveKey([]byte(password), salt)
	if _, err := c.Register(ctx, username, salt, verifier); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	gotSalt, err := c.GetSalt(ctx, username)
	if err != nil {
		t.Fatalf("GetSalt error: %v", err)
	}
	if err := c.Login(ctx, username, cryptox.DeriveKey([]byte(password), gotSalt)); err != nil {
		t.Fatalf("Login error: %v", err)
	}
}

func TestClient_AuthFlow(t *testing.T) {
	c := newBackend(t, time.Hour)
	signupAndLogin(t, c, "alice", "pw")

	if !c.LoggedIn() {
		t.Error("client should hold tokens after login")
	}
	c.Logout()
	if c.LoggedIn() {
		t.Error("client should drop tokens on logout")
	}
}

func TestClient_LoginWrongPassword(t *testing.T) {
	c := newBackend(t, time.Hour)
	signupAndLogin(t, c, "alice", "pw")
	c.Logout()

	salt, err := c.GetSalt(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetSalt error: %v", err)
	}
	err = c.Login(context.Background(), "alice", cryptox.DeriveKey([]byte("nope"), salt))
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Errorf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestClient_EndToEndShare(t *testing.T) {
	ctx := context.Background()
	owner := newBackend(t, time.Hour)
	signupAndLogin(t, owner, "owner", "pw")

	// requester talks to the same backend
	requester := New(owner.baseURL)
	signupAndLogin(t, requester, "requester", "pw")

	// both publish keys
	ownerWrap, _ := cryptox.GenerateWrapKeyPair()
	ownerSign, _ := cryptox.GenerateSignKeyPair()
	ownerWrapPEM, _ := cryptox.EncodePublicKeyPEM(&ownerWrap.PublicKey)
	ownerSignPEM, _ := cryptox.EncodePublicKeyPEM(&ownerSign.PublicKey)
	if _, err := owner.PublishKeys(ctx, ownerWrapPEM, ownerSignPEM); err != nil {
		t.Fatalf("owner PublishKeys error: %v", err)
	}

	reqWrap, _ := cryptox.GenerateWrapKeyPair()
	reqSign, _ := cryptox.GenerateSignKeyPair()
	reqWrapPEM, _ := cryptox.EncodePublicKeyPEM(&reqWrap.PublicKey)
	reqSignPEM, _ := cryptox.EncodePublicKeyPEM(&reqSign.PublicKey)
	if _, err := requester.PublishKeys(ctx, reqWrapPEM, reqSignPEM); err != nil {
		t.Fatalf("requester PublishKeys error: %v", err)
	}

	// owner encrypts, signs, and uploads
	plaintext := []byte("home video bytes")
	contentKey := cryptox.NewContentKey()
	ciphertext, err := cryptox.Seal(contentKey, plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	digest, _ := cryptox.ComputeDigest(bytes.NewReader(ciphertext))
	sig, _ := cryptox.SignDigest(digest, ownerSign)
	wrappedOwner, _ := cryptox.WrapKey(&ownerWrap.PublicKey, contentKey)

	item, err := owner.UploadItem(ctx, "vacation.mp4", "summer", digest, sig, wrappedOwner, bytes.NewReader(ciphertext))
	if err != nil {
		t.Fatalf("UploadItem error: %v", err)
	}

	report, err := owner.VerifyItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("VerifyItem error: %v", err)
	}
	if !report.DigestMatches || !report.SignatureValid {
		t.Fatalf("fresh item should verify: %+v", report)
	}

	// requester finds the item and asks for access
	listed, err := requester.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 listed item, got %d", len(listed))
	}
	req, err := requester.OpenRequest(ctx, item.ID)
	if err != nil {
		t.Fatalf("OpenRequest error: %v", err)
	}

	// owner approves with a rewrapped key
	incoming, err := owner.IncomingRequests(ctx)
	if err != nil {
		t.Fatalf("IncomingRequests error: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != req.ID {
		t.Fatalf("unexpected incoming requests: %+v", incoming)
	}
	keys, err := owner.RequesterKey(ctx, req.ID)
	if err != nil {
		t.Fatalf("RequesterKey error: %v", err)
	}
	requesterPub, err := cryptox.ParseRSAPublicKeyPEM(keys.WrapPublicKey)
	if err != nil {
		t.Fatalf("parse requester key: %v", err)
	}
	full, err := owner.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem error: %v", err)
	}
	ownKey, err := cryptox.UnwrapKey(ownerWrap, full.WrappedKeyOwner)
	if err != nil {
		t.Fatalf("unwrap own key: %v", err)
	}
	rewrapped, err := cryptox.WrapKey(requesterPub, ownKey)
	if err != nil {
		t.Fatalf("rewrap: %v", err)
	}
	if err := owner.Approve(ctx, req.ID, rewrapped); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	// requester downloads and decrypts
	access, err := requester.QueryAccess(ctx, item.ID)
	if err != nil {
		t.Fatalf("QueryAccess error: %v", err)
	}
	if access.Level != "granted" {
		t.Fatalf("expected granted, got %q", access.Level)
	}
	rc, err := requester.Download(ctx, item.ID)
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	gotCipher, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	gotKey, err := cryptox.UnwrapKey(reqWrap, access.WrappedKey)
	if err != nil {
		t.Fatalf("unwrap granted key: %v", err)
	}
	got, err := cryptox.Open(gotKey, gotCipher)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("decrypted content mismatch")
	}
}

func TestClient_AutoRefreshOnExpiredToken(t *testing.T) {
	c := newBackend(t, time.Hour)
	signupAndLogin(t, c, "alice", "pw")

	// swap in an expired access token while keeping the valid refresh token
	expired, err := auth.GenerateToken("u1", []byte("test-secret"), -time.Second)
	if err != nil {
		t.Fatalf("token gen: %v", err)
	}
	c.mu.Lock()
	c.accessToken = expired
	c.mu.Unlock()

	if _, err := c.ListItems(context.Background()); err != nil {
		t.Fatalf("expected transparent refresh to recover, got %v", err)
	}
}

func TestClient_RefreshWithoutLogin(t *testing.T) {
	c := newBackend(t, time.Hour)

	err := c.Refresh(context.Background())
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Errorf("expected ErrorUnauthorized, got %v", err)
	}
}
