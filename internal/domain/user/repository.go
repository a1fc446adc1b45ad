package user

import "context"

type Repository interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, userID string) (*User, error)
	GetMany(ctx context.Context, userIDs []string) ([]User, error)
	FindByWaterID(ctx context.Context, waterID string) (*User, error)
	// ListByWaterRoot returns every user whose current water identifier is
	// rooted at rootID.
	ListByWaterRoot(ctx context.Context, rootID string) ([]User, error)
	ListOwners(ctx context.Context, rootID string) ([]User, error)
	SetTenancy(ctx context.Context, userID, waterID, tenantCode string) error
	// ClaimTenancy sets the residence only while the user has none. It fails
	// with store.ErrConflict when the user is already housed.
	ClaimTenancy(ctx context.Context, userID, waterID, tenantCode string) error
	AddProperty(ctx context.Context, userID, rootID string) error
	RemoveProperty(ctx context.Context, userID, rootID string) error
}
