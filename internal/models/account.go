package models

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a brokerage account whose trades are journaled
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Broker    string         `gorm:"size:50" json:"broker"`
	Currency  string         `gorm:"size:3;default:'USD'" json:"currency"`
	Timezone  string         `gorm:"size:64" json:"timezone"` // IANA zone the export timestamps are written in
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User   User    `gorm:"foreignKey:UserID" json:"-"`
	Trades []Trade `gorm:"foreignKey:AccountID" json:"trades,omitempty"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}

// Location resolves the account timezone, falling back to def when unset or unknown
func (a *Account) Location(def *time.Location) *time.Location {
	if a.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return def
	}
	return loc
}
