package store

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"guesthouse-occupancy-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	RegisterGuest(ctx context.Context, guest *model.Guest) (RegisterResult, error)
	RemoveGuest(ctx context.Context, uid uint64) (RemoveResult, error)
	FindGuest(ctx context.Context, uid uint64) (*model.Guest, error)
	ListGuests(ctx context.Context) ([]model.Guest, error)
	CountGuests(ctx context.Context) (int64, error)

	GetSettings(ctx context.Context) (*model.FacilitySettings, error)
	UpdateSettings(ctx context.Context, update SettingsUpdate, defaultTitle string) (*model.FacilitySettings, error)
	EnsureSettings(ctx context.Context, defaults model.FacilitySettings) (*model.FacilitySettings, error)
	ReconcileActiveGuests(ctx context.Context) (before, after int64, err error)

	DB() *gorm.DB
}

const settingsCacheKey = "facility_settings"

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db       *gorm.DB
	settings *cache.Cache

	// settingsGen is bumped on every invalidation; a read only populates the
	// mirror if no invalidation happened since it started.
	settingsMu  sync.Mutex
	settingsGen uint64
}

// NewGormStore creates a new GORM-backed store. Settings reads are mirrored
// in memory for settingsTTL and dropped on every write that touches them.
func NewGormStore(db *gorm.DB, settingsTTL time.Duration) Store {
	if settingsTTL <= 0 {
		settingsTTL = time.Minute
	}
	return &gormStore{
		db:       db,
		settings: cache.New(settingsTTL, 2*settingsTTL),
	}
}

func (s *gormStore) settingsGeneration() uint64 {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settingsGen
}

func (s *gormStore) cacheSettings(fs model.FacilitySettings, gen uint64) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if s.settingsGen == gen {
		s.settings.SetDefault(settingsCacheKey, fs)
	}
}

func (s *gormStore) invalidateSettings() {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	s.settingsGen++
	s.settings.Delete(settingsCacheKey)
}

// DB exposes the underlying handle, used for health checks.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
