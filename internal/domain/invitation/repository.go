package invitation

import "context"

type Repository interface {
	// Upsert replaces the invitation for HostWaterID, keeping the existing
	// id when there is one, and writes that id back into invitation.
	Upsert(ctx context.Context, invitation *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	ListByGuest(ctx context.Context, guestID string) ([]Invitation, error)
	// SetGuestStatus updates one guest's status in place. Fails with
	// store.ErrNotFound when the invitation or the guest key is gone. A
	// non-empty expect makes the write conditional on the current status;
	// a mismatch fails with store.ErrConflict.
	SetGuestStatus(ctx context.Context, id, guestID string, expect, status Status) error
	// RemoveGuest drops guestID from every per-guest map and deletes the
	// invitation once no guests remain. expect works as in SetGuestStatus.
	RemoveGuest(ctx context.Context, id, guestID string, expect Status) (deleted bool, err error)
}
