package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guesthouse-occupancy-backend/internal/model"
)

// GetSettings returns the singleton settings row.
func (s *gormStore) GetSettings(ctx context.Context) (*model.FacilitySettings, error) {
	if cached, ok := s.settings.Get(settingsCacheKey); ok {
		fs := cached.(model.FacilitySettings)
		return &fs, nil
	}

	gen := s.settingsGeneration()
	var fs model.FacilitySettings
	err := s.db.WithContext(ctx).First(&fs, model.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingsNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facility settings: %w", err)
	}

	s.cacheSettings(fs, gen)
	return &fs, nil
}

// UpdateSettings writes new administrator values and recomputes the cached
// active-guest counter from the guests table. A missing row is created.
func (s *gormStore) UpdateSettings(ctx context.Context, update SettingsUpdate, defaultTitle string) (*model.FacilitySettings, error) {
	var out model.FacilitySettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&model.Guest{}).Count(&active).Error; err != nil {
			return fmt.Errorf("failed to count guests: %w", err)
		}

		row := model.FacilitySettings{
			ID:                       model.SettingsID,
			Title:                    defaultTitle,
			Capacity:                 update.Capacity,
			EachPersonTime:           update.EachPersonTime,
			SettlementThresholdHours: update.SettlementThresholdHours,
			ActiveGuestsCached:       active,
			UpdatedAt:                time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"capacity", "each_person_time", "settlement_threshold_hours", "active_guests_cached", "updated_at",
			}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert facility settings: %w", err)
		}

		return tx.First(&out, model.SettingsID).Error
	})
	s.invalidateSettings()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EnsureSettings creates the singleton row from defaults when it does not exist yet.
func (s *gormStore) EnsureSettings(ctx context.Context, defaults model.FacilitySettings) (*model.FacilitySettings, error) {
	active, err := s.CountGuests(ctx)
	if err != nil {
		return nil, err
	}
	defaults.ID = model.SettingsID
	defaults.ActiveGuestsCached = active

	var fs model.FacilitySettings
	if err := s.db.WithContext(ctx).
		Attrs(defaults).
		FirstOrCreate(&fs, model.FacilitySettings{ID: model.SettingsID}).Error; err != nil {
		return nil, fmt.Errorf("failed to bootstrap facility settings: %w", err)
	}
	s.invalidateSettings()
	return &fs, nil
}

// ReconcileActiveGuests rewrites the cached counter from the ground-truth
// count and reports the values before and after.
func (s *gormStore) ReconcileActiveGuests(ctx context.Context) (before, after int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fs model.FacilitySettings
		if err := tx.First(&fs, model.SettingsID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSettingsNotConfigured
			}
			return fmt.Errorf("failed to fetch facility settings: %w", err)
		}
		before = fs.ActiveGuestsCached

		if err := tx.Model(&model.Guest{}).Count(&after).Error; err != nil {
			return fmt.Errorf("failed to count guests: %w", err)
		}
		if before == after {
			return nil
		}
		return tx.Model(&model.FacilitySettings{}).
			Where("id = ?", model.SettingsID).
			UpdateColumn("active_guests_cached", after).Error
	})
	if err == nil && before != after {
		s.invalidateSettings()
	}
	return before, after, err
}
