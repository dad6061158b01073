package services

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/server/blob"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
)

// vaultUser bundles the client-side key material a test user would hold.
type vaultUser struct {
	id       string
	wrapPriv *rsa.PrivateKey
	signPriv *ecdsa.PrivateKey
}

type testEnv struct {
	rm       *repomanager.MemoryRepositoryManager
	media    *MediaService
	access   *AccessService
	identity *IdentityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	rm := repomanager.NewMemoryRepositoryManager()
	return &testEnv{
		rm:       rm,
		media:    NewMediaService(nil, rm, store),
		access:   NewAccessService(nil, rm),
		identity: NewIdentityService(nil, rm),
	}
}

// enroll publishes a fresh key set for id and returns the private halves.
func (e *testEnv) enroll(t *testing.T, id string) *vaultUser {
	t.Helper()

	wrapPriv, err := cryptox.GenerateWrapKeyPair()
	if err != nil {
		t.Fatalf("wrap keygen: %v", err)
	}
	signPriv, err := cryptox.GenerateSignKeyPair()
	if err != nil {
		t.Fatalf("sign keygen: %v", err)
	}
	wrapPEM, err := cryptox.EncodePublicKeyPEM(&wrapPriv.PublicKey)
	if err != nil {
		t.Fatalf("encode wrap key: %v", err)
	}
	signPEM, err := cryptox.EncodePublicKeyPEM(&signPriv.PublicKey)
	if err != nil {
		t.Fatalf("encode sign key: %v", err)
	}
	if _, err := e.identity.Publish(context.Background(), id, wrapPEM, signPEM); err != nil {
		t.Fatalf("publish keys: %v", err)
	}
	return &vaultUser{id: id, wrapPriv: wrapPriv, signPriv: signPriv}
}

// publish performs the client-side half of item publication for owner and
// calls MediaService.Create with the result.
func (e *testEnv) publish(t *testing.T, owner *vaultUser, plaintext []byte) *models.MediaItem {
	t.Helper()

	item, err := e.tryPublish(owner, plaintext)
	if err != nil {
		t.Fatalf("publish item: %v", err)
	}
	return item
}

func (e *testEnv) tryPublish(owner *vaultUser, plaintext []byte) (*models.MediaItem, error) {
	key := cryptox.NewContentKey()
	ciphertext, err := cryptox.Seal(key, plaintext)
	if err != nil {
		return nil, err
	}
	digest, err := cryptox.ComputeDigest(bytes.NewReader(ciphertext))
	if err != nil {
		return nil, err
	}
	sig, err := cryptox.SignDigest(digest, owner.signPriv)
	if err != nil {
		return nil, err
	}
	wrapped, err := cryptox.WrapKey(&owner.wrapPriv.PublicKey, key)
	if err != nil {
		return nil, err
	}
	return e.media.Create(context.Background(), owner.id, bytes.NewReader(ciphertext), CreateParams{
		Title:           "holiday.mp4",
		Digest:          digest,
		Signature:       sig,
		WrappedKeyOwner: wrapped,
	})
}

func TestMediaService_CreateAndVerify(t *testing.T) {
	env := newTestEnv(t)
	owner := env.enroll(t, "owner1")

	item := env.publish(t, owner, []byte("movie bytes"))
	if item.ID == "" {
		t.Fatal("expected item ID to be assigned")
	}

	report, err := env.media.Verify(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !report.Valid() {
		t.Errorf("fresh item should verify, got %+v", report)
	}
}

func TestMediaService_CreateDigestMismatch(t *testing.T) {
	env := newTestEnv(t)
	owner := env.enroll(t, "owner1")

	digest, _ := cryptox.ComputeDigest(bytes.NewReader([]byte("other content")))
	sig, err := cryptox.SignDigest(digest, owner.signPriv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = env.media.Create(context.Background(), owner.id, bytes.NewReader([]byte("uploaded content")), CreateParams{
		Title:           "x",
		Digest:          digest,
		Signature:       sig,
		WrappedKeyOwner: []byte{1},
	})
	if !errors.Is(err, common.ErrorIntegrityMismatch) {
		t.Errorf("expected ErrorIntegrityMismatch, got %v", err)
	}
}

func TestMediaService_CreateForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	owner := env.enroll(t, "owner1")
	other := env.enroll(t, "other1")

	content := []byte("uploaded content")
	digest, _ := cryptox.ComputeDigest(bytes.NewReader(content))
	sig, err := cryptox.SignDigest(digest, other.signPriv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = env.media.Create(context.Background(), owner.id, bytes.NewReader(content), CreateParams{
		Title:           "x",
		Digest:          digest,
		Signature:       sig,
		WrappedKeyOwner: []byte{1},
	})
	if !errors.Is(err, common.ErrorSignatureInvalid) {
		t.Errorf("expected ErrorSignatureInvalid, got %v", err)
	}
}

func TestMediaService_CreateWithoutKeys(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.media.Create(context.Background(), "nobody", bytes.NewReader([]byte("x")), CreateParams{
		Digest:          "d",
		Signature:       []byte{1},
		WrappedKeyOwner: []byte{1},
	})
	if !errors.Is(err, common.ErrorNoPublicKeyPublished) {
		t.Errorf("expected ErrorNoPublicKeyPublished, got %v", err)
	}
}

func TestMediaService_DownloadAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner := env.enroll(t, "owner1")
	env.enroll(t, "stranger1")

	item := env.publish(t, owner, []byte("movie bytes"))

	rc, got, err := env.media.Download(context.Background(), owner.id, item.ID)
	if err != nil {
		t.Fatalf("owner download error: %v", err)
	}
	defer rc.Close()
	if got.ID != item.ID {
		t.Errorf("item mismatch: %q vs %q", got.ID, item.ID)
	}
	if _, err := io.ReadAll(rc); err != nil {
		t.Fatalf("read: %v", err)
	}

	_, _, err = env.media.Download(context.Background(), "stranger1", item.ID)
	if !errors.Is(err, common.ErrorForbidden) {
		t.Errorf("expected ErrorForbidden for stranger, got %v", err)
	}
}

func TestMediaService_List(t *testing.T) {
	env := newTestEnv(t)
	owner := env.enroll(t, "owner1")
	env.publish(t, owner, []byte("a"))
	env.publish(t, owner, []byte("b"))

	items, err := env.media.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}
