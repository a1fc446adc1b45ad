package invitation

import (
	"fmt"
	"maps"
	"slices"
	"time"

	userdomain "water-app-go/internal/domain/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

func (s Status) Answer() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Invitation is keyed by the host household. Status, ArrivalTime and
// StayDuration are keyed by guest user id and always share one key set.
type Invitation struct {
	ID           string            `gorm:"type:uuid;primaryKey" json:"id"`
	HostWaterID  string            `gorm:"not null;uniqueIndex" json:"host_water_id"`
	HostID       string            `gorm:"not null;index" json:"host_id"`
	Status       map[string]string `gorm:"type:jsonb;serializer:json;not null;default:'{}'" json:"status"`
	ArrivalTime  map[string]string `gorm:"type:jsonb;serializer:json;not null;default:'{}'" json:"arrival_time"`
	StayDuration map[string]string `gorm:"type:jsonb;serializer:json;not null;default:'{}'" json:"stay_duration"`
	OTP          map[string]string `gorm:"column:otp;type:jsonb;serializer:json;not null;default:'{}'" json:"otp"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// Guests returns the guest ids in sorted order.
func (i *Invitation) Guests() []string {
	return slices.Sorted(maps.Keys(i.Status))
}

func (i *Invitation) HasGuest(userID string) bool {
	_, ok := i.Status[userID]
	return ok
}

func (i *Invitation) Empty() bool {
	return len(i.Status) == 0 && len(i.ArrivalTime) == 0 && len(i.StayDuration) == 0
}

// Validate checks that the three per-guest maps agree on their keys.
func (i *Invitation) Validate() error {
	for guest := range i.Status {
		if _, ok := i.ArrivalTime[guest]; !ok {
			return fmt.Errorf("invitation %s: guest %s has no arrival time", i.ID, guest)
		}
		if _, ok := i.StayDuration[guest]; !ok {
			return fmt.Errorf("invitation %s: guest %s has no stay duration", i.ID, guest)
		}
	}
	if len(i.ArrivalTime) != len(i.Status) || len(i.StayDuration) != len(i.Status) {
		return fmt.Errorf("invitation %s: guest maps disagree", i.ID)
	}
	return nil
}

type PropertySummary struct {
	ID            string `json:"id"`
	RootID        string `json:"root_id"`
	Name          string `json:"name"`
	District      string `json:"district"`
	Municipality  string `json:"municipality"`
	Ward          int    `json:"ward"`
	ExactLocation string `json:"exact_location"`
}

// GuestView is one invitation as seen by a single guest.
type GuestView struct {
	InvitationID string             `json:"invitation_id"`
	HostWaterID  string             `json:"host_water_id"`
	Host         userdomain.Profile `json:"host"`
	Property     PropertySummary    `json:"property"`
	Status       Status             `json:"status"`
	ArrivalTime  string             `json:"arrival_time"`
	StayDuration string             `json:"stay_duration"`
}

type UpdateResult struct {
	InvitationID string `json:"invitation_id"`
	Status       Status `json:"status"`
	Deleted      bool   `json:"deleted"`
	GuestAdded   bool   `json:"guest_added"`
}
