package model

import "time"

// NameMaxLength is the column width of Guest.Name and Guest.Family, in characters.
const NameMaxLength = 50

// Guest is a registered visitor occupying one unit of facility capacity.
// Durations are never stored; they are derived from EnterTime on read.
//
// IDs are UUIDv7, so ordering by ID follows registration order even when
// several guests share an EnterTime.
type Guest struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UID       uint64    `gorm:"column:uid;uniqueIndex;not null"`
	Name      string    `gorm:"size:50;not null"`
	Family    string    `gorm:"size:50;not null"`
	EnterTime time.Time `gorm:"not null;index"`
}
