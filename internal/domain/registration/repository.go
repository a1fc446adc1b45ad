package registration

import "context"

type Repository interface {
	// Create fails with store.ErrConflict when (WaterID, ServiceDate, Slot)
	// is already booked.
	Create(ctx context.Context, registration *Registration) error
	Get(ctx context.Context, waterID, serviceDate string, slot int) (*Registration, error)
	// Latest returns the household's registration with the newest service
	// date, and on that date the latest slot.
	Latest(ctx context.Context, waterID string) (*Registration, error)
	// AddInvitedGuest appends guestID unless it is already listed.
	AddInvitedGuest(ctx context.Context, waterID, serviceDate string, slot int, guestID string) error
}
