package user

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type User struct {
	UserID       string         `gorm:"primaryKey"`
	Name         string         `gorm:"not null"`
	PasswordHash string         `gorm:"not null"`
	PhotoRef     string         `gorm:"type:text"`
	NationalID   string         `gorm:"not null;uniqueIndex"`
	WaterID      string         `gorm:"index"`
	TenantCode   string         `gorm:"size:3"`
	Properties   pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (u *User) Owns(rootID string) bool {
	return slices.Contains(u.Properties, rootID)
}

func (u *User) Housed() bool {
	return u.WaterID != ""
}

// Profile is the display subset handed to other households.
type Profile struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	PhotoRef string `json:"photo_ref"`
}

func (u *User) Profile() Profile {
	return Profile{UserID: u.UserID, Name: u.Name, PhotoRef: u.PhotoRef}
}
