package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/cryptox"
)

func (a *App) requestAccess(ctx context.Context) error {
	itemID, err := getSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	req, err := a.api.OpenRequest(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Printf("Request %s opened, waiting for the owner's decision.\n", req.ID)
	return nil
}

func (a *App) incoming(ctx context.Context) error {
	reqs, err := a.api.IncomingRequests(ctx)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("No requests against your items.")
		return nil
	}
	for _, r := range reqs {
		fmt.Printf("%s  item=%s requester=%s state=%s\n", r.ID, r.ItemID, r.RequesterID, r.State)
	}
	return nil
}

func (a *App) outgoing(ctx context.Context) error {
	reqs, err := a.api.OutgoingRequests(ctx)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("You have no open requests.")
		return nil
	}
	for _, r := range reqs {
		fmt.Printf("%s  item=%s state=%s\n", r.ID, r.ItemID, r.State)
	}
	return nil
}

// approve rewraps the item's content key for the requester and submits it.
// The content key is only ever in the clear inside this process.
func (a *App) approve(ctx context.Context) error {
	requestID, err := getSimpleText(a.reader, "Request id", os.Stdout)
	if err != nil {
		return err
	}

	keys, err := a.api.RequesterKey(ctx, requestID)
	if err != nil {
		return err
	}
	requesterPub, err := cryptox.ParseRSAPublicKeyPEM(keys.WrapPublicKey)
	if err != nil {
		return err
	}

	reqs, err := a.api.IncomingRequests(ctx)
	if err != nil {
		return err
	}
	var itemID string
	for _, r := range reqs {
		if r.ID == requestID {
			itemID = r.ItemID
			break
		}
	}
	if itemID == "" {
		return fmt.Errorf("request %s not found among your items", requestID)
	}

	item, err := a.api.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	contentKey, err := cryptox.UnwrapKey(a.wrapPriv, item.WrappedKeyOwner)
	if err != nil {
		return err
	}
	rewrapped, err := cryptox.WrapKey(requesterPub, contentKey)
	if err != nil {
		return err
	}

	if err := a.api.Approve(ctx, requestID, rewrapped); err != nil {
		return err
	}
	fmt.Println("Approved.")
	return nil
}

func (a *App) reject(ctx context.Context) error {
	requestID, err := getSimpleText(a.reader, "Request id", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.api.Reject(ctx, requestID); err != nil {
		return err
	}
	fmt.Println("Rejected.")
	return nil
}
