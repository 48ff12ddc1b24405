package model

import "time"

// SettingsID is the well-known primary key of the singleton settings row.
const SettingsID uint = 1

// FacilitySettings holds the administrator-controlled facility configuration.
type FacilitySettings struct {
	ID                       uint   `gorm:"primaryKey;autoIncrement:false"`
	Title                    string `gorm:"size:100;not null"`
	Capacity                 int    `gorm:"not null"`
	EachPersonTime           int    `gorm:"not null"` // hours
	SettlementThresholdHours int    `gorm:"not null"`
	// ActiveGuestsCached mirrors COUNT(guests). Never authoritative.
	ActiveGuestsCached int64 `gorm:"not null;default:0"`
	UpdatedAt          time.Time
}
