package registration

import (
	"slices"
	"time"

	"github.com/lib/pq"

	userdomain "water-app-go/internal/domain/user"
)

// Registration books one household onto one delivery slot of one service day.
type Registration struct {
	ID                  string         `gorm:"type:uuid;primaryKey" json:"id"`
	WaterID             string         `gorm:"not null;uniqueIndex:idx_registrations_slot" json:"water_id"`
	ServiceDate         string         `gorm:"size:10;not null;uniqueIndex:idx_registrations_slot" json:"service_date"`
	Slot                int            `gorm:"not null;uniqueIndex:idx_registrations_slot" json:"slot"`
	PrimaryMembers      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"primary_members"`
	SpecialMembers      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"special_members"`
	InvitedGuests       pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"invited_guests"`
	ExtraWaterRequested bool           `gorm:"not null;default:false" json:"extra_water_requested"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Registration) IsSpecial(userID string) bool {
	return slices.Contains(r.SpecialMembers, userID)
}

type Member struct {
	userdomain.Profile
	IsSpecial bool `json:"is_special"`
}

type Details struct {
	WaterID             string   `json:"water_id"`
	ServiceDate         string   `json:"service_date"`
	Slot                int      `json:"slot"`
	Found               bool     `json:"found"`
	ExtraWaterRequested bool     `json:"extra_water_requested"`
	PrimaryMembers      []Member `json:"primary_members"`
	InvitedGuests       []Member `json:"invited_guests"`
}
