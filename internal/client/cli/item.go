package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/cryptox"
)

// upload encrypts a local file with a fresh content key, signs its digest,
// wraps the key for the caller, and publishes the item.
func (a *App) upload(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Path to file", os.Stdout)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	contentKey := cryptox.NewContentKey()
	ciphertext, err := cryptox.Seal(contentKey, plaintext)
	if err != nil {
		return err
	}
	digest, err := cryptox.ComputeDigest(bytes.NewReader(ciphertext))
	if err != nil {
		return err
	}
	signature, err := cryptox.SignDigest(digest, a.signPriv)
	if err != nil {
		return err
	}
	wrappedKey, err := cryptox.WrapKey(&a.wrapPriv.PublicKey, contentKey)
	if err != nil {
		return err
	}

	item, err := a.api.UploadItem(ctx, title, description, digest, signature, wrappedKey, bytes.NewReader(ciphertext))
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s (id %s)\n", item.Title, item.ID)
	return nil
}

// fetch downloads an item, recovers the content key from the appropriate
// wrapped copy, decrypts, and writes the plaintext to a local file.
func (a *App) fetch(ctx context.Context) error {
	itemID, err := getSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	outPath, err := getSimpleText(a.reader, "Save to", os.Stdout)
	if err != nil {
		return err
	}

	access, err := a.api.QueryAccess(ctx, itemID)
	if err != nil {
		return err
	}

	var wrappedKey []byte
	switch access.Level {
	case "owner":
		item, err := a.api.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		wrappedKey = item.WrappedKeyOwner
	case "granted":
		wrappedKey = access.WrappedKey
	default:
		return fmt.Errorf("no access to item %s; request it first", itemID)
	}

	contentKey, err := cryptox.UnwrapKey(a.wrapPriv, wrappedKey)
	if err != nil {
		return err
	}

	rc, err := a.api.Download(ctx, itemID)
	if err != nil {
		return err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return err
	}
	plaintext, err := cryptox.Open(contentKey, buf.Bytes())
	if err != nil {
		return fmt.Errorf("decrypt failed: %w", err)
	}

	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		return err
	}
	fmt.Printf("Saved %d bytes to %s\n", len(plaintext), outPath)
	return nil
}

// verify asks the server to recheck an item's stored digest and signature.
func (a *App) verify(ctx context.Context) error {
	itemID, err := getSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	report, err := a.api.VerifyItem(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Printf("digest match: %v, signature valid: %v\n", report.DigestMatches, report.SignatureValid)
	return nil
}

func (a *App) list(ctx context.Context) error {
	items, err := a.api.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No items.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %-30s owner=%s\n", item.ID, item.Title, item.OwnerID)
	}
	return nil
}

func (a *App) myItems(ctx context.Context) error {
	items, err := a.api.MyItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("You have not uploaded anything yet.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %-30s %s\n", item.ID, item.Title, item.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
