package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guesthouse-occupancy-backend/internal/model"
)

// RegisterGuest inserts the guest unless its UID is already taken. The unique
// index on uid decides the race: concurrent callers with the same UID get
// exactly one RegisterCreated.
func (s *gormStore) RegisterGuest(ctx context.Context, guest *model.Guest) (RegisterResult, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoNothing: true,
	}).Create(guest)
	if res.Error != nil {
		return "", fmt.Errorf("failed to insert guest %d: %w", guest.UID, res.Error)
	}
	if res.RowsAffected == 0 {
		return RegisterAlreadyExists, nil
	}

	// The guests table is the source of truth; a failed increment is repaired
	// by the next settings update or reconciler pass.
	if err := s.adjustActiveGuests(ctx, 1); err != nil {
		log.Printf("Warning: guest %d registered but active counter not incremented: %v", guest.UID, err)
	}
	return RegisterCreated, nil
}

// RemoveGuest deletes the guest holding uid. Only the caller whose DELETE
// actually removed the row observes RemoveRemoved.
func (s *gormStore) RemoveGuest(ctx context.Context, uid uint64) (RemoveResult, error) {
	res := s.db.WithContext(ctx).Where("uid = ?", uid).Delete(&model.Guest{})
	if res.Error != nil {
		return "", fmt.Errorf("failed to delete guest %d: %w", uid, res.Error)
	}
	if res.RowsAffected == 0 {
		return RemoveNotFound, nil
	}

	if err := s.adjustActiveGuests(ctx, -1); err != nil {
		log.Printf("Warning: guest %d removed but active counter not decremented: %v", uid, err)
	}
	return RemoveRemoved, nil
}

// FindGuest looks a guest up by its external UID.
func (s *gormStore) FindGuest(ctx context.Context, uid uint64) (*model.Guest, error) {
	var guest model.Guest
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&guest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guest %d: %w", uid, err)
	}
	return &guest, nil
}

// ListGuests returns every registered guest in registration order.
func (s *gormStore) ListGuests(ctx context.Context) ([]model.Guest, error) {
	var guests []model.Guest
	if err := s.db.WithContext(ctx).Order("enter_time ASC").Order("id ASC").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

// CountGuests returns the authoritative number of registered guests.
func (s *gormStore) CountGuests(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Guest{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count guests: %w", err)
	}
	return n, nil
}

// adjustActiveGuests nudges the cached counter, never below zero.
func (s *gormStore) adjustActiveGuests(ctx context.Context, delta int) error {
	q := s.db.WithContext(ctx).Model(&model.FacilitySettings{}).Where("id = ?", model.SettingsID)
	if delta < 0 {
		q = q.Where("active_guests_cached >= ?", -delta)
	}
	err := q.UpdateColumn("active_guests_cached", gorm.Expr("active_guests_cached + ?", delta)).Error
	s.invalidateSettings()
	return err
}
