package store

import "errors"

var (
	// ErrSettingsNotConfigured is returned when the singleton settings row is absent.
	ErrSettingsNotConfigured = errors.New("facility settings not configured")
	// ErrGuestNotFound is returned by lookups for a UID nobody holds.
	ErrGuestNotFound = errors.New("guest not found")
)

// RegisterResult is the outcome of a registration attempt.
type RegisterResult string

const (
	RegisterCreated       RegisterResult = "created"
	RegisterAlreadyExists RegisterResult = "createdBefore"
)

// RemoveResult is the outcome of a removal attempt.
type RemoveResult string

const (
	RemoveRemoved  RemoveResult = "removed"
	RemoveNotFound RemoveResult = "notFound"
)

// SettingsUpdate carries the administrator-editable settings fields.
type SettingsUpdate struct {
	Capacity                 int
	EachPersonTime           int
	SettlementThresholdHours int
}
