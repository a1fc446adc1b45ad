package property

import (
	"time"

	"github.com/lib/pq"

	"water-app-go/internal/domain/waterid"
)

type Type string

const (
	TypePersonal  Type = "personal"
	TypeApartment Type = "apartment"
)

// IDType names what the identifier number means: a holding number for a
// personal property, a flat id for an apartment.
type IDType string

const (
	IDTypeHoldingNumber IDType = "holdingNumber"
	IDTypeFlatID        IDType = "flatId"
)

func (t Type) IDType() (IDType, bool) {
	switch t {
	case TypePersonal:
		return IDTypeHoldingNumber, true
	case TypeApartment:
		return IDTypeFlatID, true
	default:
		return "", false
	}
}

type Property struct {
	ID               string         `gorm:"type:uuid;primaryKey"`
	RootID           string         `gorm:"size:15;not null;uniqueIndex"`
	Name             string         `gorm:"not null"`
	District         string         `gorm:"not null"`
	Municipality     string         `gorm:"not null"`
	Ward             int            `gorm:"not null"`
	Type             Type           `gorm:"type:varchar(16);not null"`
	IDType           IDType         `gorm:"type:varchar(16);not null;uniqueIndex:idx_properties_identifier"`
	IdentifierNumber string         `gorm:"not null;uniqueIndex:idx_properties_identifier"`
	NumberOfTenants  int            `gorm:"not null;default:1"`
	Families         pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	ExactLocation    string         `gorm:"type:text"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

// TenantCount excludes the owning household.
func (p *Property) TenantCount() int {
	return max(p.NumberOfTenants-1, 0)
}

func (p *Property) OwnerWaterID() string {
	return waterid.Compose(p.RootID, waterid.OwnerTenantCode)
}

// Family is the per-tenant-code ledger under a root: usage, guest counts and
// fines keyed by calendar date.
type Family struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	RootID          string         `gorm:"size:15;not null;uniqueIndex:idx_families_slot"`
	TenantCode      string         `gorm:"size:3;not null;uniqueIndex:idx_families_slot"`
	WaterUsage      map[string]any `gorm:"type:jsonb;serializer:json;not null;default:'{}'"`
	Guests          map[string]any `gorm:"type:jsonb;serializer:json;not null;default:'{}'"`
	Fines           map[string]any `gorm:"type:jsonb;serializer:json;not null;default:'{}'"`
	ExtraWaterDates pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (f *Family) WaterID() string {
	return waterid.Compose(f.RootID, f.TenantCode)
}

type PropertyView struct {
	Property    Property `json:"property"`
	TenantCount int      `json:"tenant_count"`
	IsOwner     bool     `json:"is_owner"`
	IsResidence bool     `json:"is_residence"`
}

type Tenant struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	PhotoRef   string `json:"photo_ref"`
	WaterID    string `json:"water_id"`
	TenantCode string `json:"tenant_code"`
}

type Tenancy struct {
	UserID     string `json:"user_id"`
	RootID     string `json:"root_id"`
	TenantCode string `json:"tenant_code"`
	WaterID    string `json:"water_id"`
}
