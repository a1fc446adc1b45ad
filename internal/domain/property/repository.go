package property

import "context"

type Repository interface {
	Create(ctx context.Context, property *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	GetByRootID(ctx context.Context, rootID string) (*Property, error)
	ListByRootIDs(ctx context.Context, rootIDs []string) ([]Property, error)
	IdentifierExists(ctx context.Context, idType IDType, number string) (bool, error)
	RootIDExists(ctx context.Context, rootID string) (bool, error)
	// AppendFamily adds waterID to Families and increments NumberOfTenants in
	// one write.
	AppendFamily(ctx context.Context, id, waterID string) error
	// RemoveFamily drops waterID from Families and decrements
	// NumberOfTenants, never below zero, in one write. It fails with
	// store.ErrNotFound when waterID is not listed, leaving the count alone.
	RemoveFamily(ctx context.Context, id, waterID string) error
	Delete(ctx context.Context, id string) error
}

type FamilyRepository interface {
	Create(ctx context.Context, family *Family) error
	Get(ctx context.Context, rootID, tenantCode string) (*Family, error)
	Delete(ctx context.Context, rootID, tenantCode string) error
	DeleteByRoot(ctx context.Context, rootID string) (int64, error)
	SetUsage(ctx context.Context, rootID, tenantCode, date string, liters float64) error
}

// Locker serializes tenant-code allocation per root.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
