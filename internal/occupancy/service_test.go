package occupancy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"guesthouse-occupancy-backend/internal/db"
	"guesthouse-occupancy-backend/internal/metrics"
	"guesthouse-occupancy-backend/internal/model"
	"guesthouse-occupancy-backend/internal/store"
	"guesthouse-occupancy-backend/internal/timefmt"
)

type clock struct{ now time.Time }

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *clock) Set(t time.Time)         { c.now = t }

func hours(n int) time.Duration { return time.Duration(n) * time.Hour }

func msAfter(d time.Duration) time.Duration { return d + time.Millisecond }

type fixture struct {
	svc     *Service
	store   store.Store
	db      *gorm.DB
	clock   *clock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, capacity, thresholdHours int) *fixture {
	t.Helper()
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))

	c := newClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	m := metrics.New(prometheus.NewRegistry())
	s := store.NewGormStore(testDB, time.Minute)
	svc := NewService(s, m, Options{Locale: timefmt.English, Now: c.Now})

	_, err = svc.Bootstrap(context.Background(), model.FacilitySettings{
		Capacity: capacity, EachPersonTime: 24, SettlementThresholdHours: thresholdHours,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, store: s, db: testDB, clock: c, metrics: m}
}

func (f *fixture) register(t *testing.T, uid uint64) {
	t.Helper()
	out, err := f.svc.RegisterGuest(context.Background(), uid, "Guest", "Family")
	require.NoError(t, err)
	require.Equal(t, store.RegisterCreated, out.Result)
}

func TestIsSettled(t *testing.T) {
	threshold := 24
	exact := int64(threshold) * 3600000

	assert.False(t, IsSettled(exact, threshold), "exactly at the threshold is not settled")
	assert.True(t, IsSettled(exact+1, threshold))
	assert.False(t, IsSettled(0, threshold))
	assert.True(t, IsSettled(1, 0))
}

func TestReachedGate(t *testing.T) {
	assert.False(t, reachedGate(9, 10))
	assert.True(t, reachedGate(19, 20))
	assert.True(t, reachedGate(20, 20))
	assert.False(t, reachedGate(18, 20))
	assert.False(t, reachedGate(0, 0))
	assert.True(t, reachedGate(1, 0))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "90.00", formatPercent(9, 10))
	assert.Equal(t, "95.00", formatPercent(19, 20))
	assert.Equal(t, "33.33", formatPercent(1, 3))
	assert.Equal(t, "66.67", formatPercent(2, 3))
	assert.Equal(t, "0.00", formatPercent(0, 50))
	assert.Equal(t, "150.00", formatPercent(3, 2))
}

func TestService_RegisterValidation(t *testing.T) {
	f := newFixture(t, 50, 24)

	_, err := f.svc.RegisterGuest(context.Background(), 1, "   ", "Family")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, CodeMissingFields, verr.Code)

	_, err = f.svc.RegisterGuest(context.Background(), 1, "Name", "")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "family", verr.Field)

	n, err := f.store.CountGuests(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "validation failures must not mutate")
}

func TestService_RegisterRejectsLongNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50, 24)

	// Counted in characters: 50 Persian letters are 100 bytes and still fit.
	fits := strings.Repeat("ب", model.NameMaxLength)
	out, err := f.svc.RegisterGuest(ctx, 1, fits, "Family")
	require.NoError(t, err)
	assert.Equal(t, store.RegisterCreated, out.Result)

	_, err = f.svc.RegisterGuest(ctx, 2, "Name", strings.Repeat("a", model.NameMaxLength+1))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "family", verr.Field)
	assert.Equal(t, CodeInvalidValue, verr.Code)

	n, err := f.store.CountGuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50, 24)

	before, err := f.svc.AdminSnapshot(ctx)
	require.NoError(t, err)

	out, err := f.svc.RegisterGuest(ctx, 7, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, store.RegisterCreated, out.Result)
	require.NotNil(t, out.Guest)
	assert.Equal(t, uint64(7), out.Guest.UID)
	assert.Equal(t, "0 seconds", out.Guest.FormattedDuration)

	dup, err := f.svc.RegisterGuest(ctx, 7, "C", "D")
	require.NoError(t, err)
	assert.Equal(t, store.RegisterAlreadyExists, dup.Result)
	assert.Nil(t, dup.Guest)

	res, err := f.svc.RemoveGuest(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, store.RemoveRemoved, res)

	roster, err := f.svc.GuestRoster(ctx)
	require.NoError(t, err)
	for _, g := range roster {
		assert.NotEqual(t, uint64(7), g.UID)
	}

	after, err := f.svc.AdminSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ActiveGuests, after.ActiveGuests)

	res, err = f.svc.RemoveGuest(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, store.RemoveNotFound, res)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GuestsRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DuplicateRegistrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GuestsRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RemovalMisses))
}

func TestService_GuestRosterNewestFirstWithFreshDurations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50, 24)

	f.register(t, 1)
	f.clock.Advance(time.Hour)
	f.register(t, 2)
	f.clock.Advance(90061 * time.Second)

	roster, err := f.svc.GuestRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, uint64(2), roster[0].UID)
	assert.Equal(t, int64(90061000), roster[0].Duration)
	assert.Equal(t, "1 day and 1 hour and 1 minute and 1 second", roster[0].FormattedDuration)
	assert.Equal(t, uint64(1), roster[1].UID)
	assert.Equal(t, int64(90061000+3600000), roster[1].Duration)

	// Durations keep growing between reads.
	f.clock.Advance(5 * time.Second)
	again, err := f.svc.GuestRoster(ctx)
	require.NoError(t, err)
	assert.Equal(t, roster[0].Duration+5000, again[0].Duration)
}

func TestService_RosterOrderWithSameEnterTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5, 24)

	for uid := uint64(1); uid <= 5; uid++ {
		f.register(t, uid)
	}

	roster, err := f.svc.GuestRoster(ctx)
	require.NoError(t, err)
	got := make([]uint64, len(roster))
	for i, g := range roster {
		got[i] = g.UID
	}
	assert.Equal(t, []uint64{5, 4, 3, 2, 1}, got)

	f.clock.Advance(hours(25))
	report, err := f.svc.ExitReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.OverstayRoster, 5)
	got = got[:0]
	for _, g := range report.OverstayRoster {
		got = append(got, g.UID)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, got)
}

func TestService_ExitReportGate(t *testing.T) {
	ctx := context.Background()

	t.Run("9 of 10 stays below the gate", func(t *testing.T) {
		f := newFixture(t, 10, 1)
		for uid := uint64(1); uid <= 9; uid++ {
			f.register(t, uid)
		}
		f.clock.Advance(hours(5))

		report, err := f.svc.ExitReport(ctx)
		require.NoError(t, err)
		assert.False(t, report.Completed95)
		assert.Equal(t, "90.00", report.Percent)
		assert.Equal(t, int64(9), report.ActiveGuests)
		assert.Empty(t, report.OverstayRoster, "roster is withheld below 95%")
		assert.Equal(t, 9.0, testutil.ToFloat64(f.metrics.OverstayingGuests))
	})

	t.Run("19 of 20 opens the gate", func(t *testing.T) {
		f := newFixture(t, 20, 24)
		for uid := uint64(1); uid <= 19; uid++ {
			f.register(t, uid)
		}

		report, err := f.svc.ExitReport(ctx)
		require.NoError(t, err)
		assert.True(t, report.Completed95)
		assert.Equal(t, "95.00", report.Percent)
		assert.Equal(t, 20, report.Capacity)
		assert.Equal(t, 24, report.SettlementThresholdHours)
		assert.NotNil(t, report.OverstayRoster)
		assert.Empty(t, report.OverstayRoster, "nobody has been here past the threshold yet")
		assert.InDelta(t, 0.95, testutil.ToFloat64(f.metrics.OccupancyRatio), 1e-9)
	})
}

func TestService_ExitReportThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 24)
	start := f.clock.Now()

	f.register(t, 100) // oldest
	f.clock.Set(start.Add(time.Millisecond))
	f.register(t, 200)

	// Guest 200 sits exactly on the threshold; guest 100 is 1ms over.
	f.clock.Set(start.Add(msAfter(hours(24))))
	report, err := f.svc.ExitReport(ctx)
	require.NoError(t, err)
	require.True(t, report.Completed95)
	require.Len(t, report.OverstayRoster, 1)
	assert.Equal(t, uint64(100), report.OverstayRoster[0].UID)

	// One more millisecond and both are over, oldest first.
	f.clock.Advance(time.Millisecond)
	report, err = f.svc.ExitReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.OverstayRoster, 2)
	assert.Equal(t, uint64(100), report.OverstayRoster[0].UID)
	assert.Equal(t, uint64(200), report.OverstayRoster[1].UID)
}

func TestService_UpdateSettingsValidationAndSelfHeal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50, 24)

	_, err := f.svc.UpdateSettings(ctx, store.SettingsUpdate{Capacity: 0, EachPersonTime: 24, SettlementThresholdHours: 24})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "capacity", verr.Field)

	_, err = f.svc.UpdateSettings(ctx, store.SettingsUpdate{Capacity: 10, EachPersonTime: 24, SettlementThresholdHours: -1})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "settlementThresholdHours", verr.Field)

	for _, uid := range []uint64{1, 2, 3} {
		f.register(t, uid)
	}
	require.NoError(t, f.db.Where("uid = ?", 3).Delete(&model.Guest{}).Error)

	changes := 0
	f.svc.OnChange(func() { changes++ })

	fs, err := f.svc.UpdateSettings(ctx, store.SettingsUpdate{Capacity: 10, EachPersonTime: 12, SettlementThresholdHours: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fs.ActiveGuestsCached)
	assert.Equal(t, 1, changes)

	snap, err := f.svc.AdminSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdminSnapshot{ActiveGuests: 2, Capacity: 10, SettlementThresholdHours: 6}, *snap)

	info, err := f.svc.FacilityInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, FacilityInfo{Title: "admin settings", Capacity: 10, EachPersonTime: 12}, *info)
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50, 24)
	f.register(t, 1)

	corrected, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, corrected)

	require.NoError(t, f.db.Where("uid = ?", 1).Delete(&model.Guest{}).Error)
	corrected, err = f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, corrected)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCorrections))
}

func TestService_SettingsMissing(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	svc := NewService(store.NewGormStore(testDB, time.Minute), nil, Options{})

	_, err = svc.AdminSnapshot(context.Background())
	assert.ErrorIs(t, err, store.ErrSettingsNotConfigured)
	_, err = svc.ExitReport(context.Background())
	assert.ErrorIs(t, err, store.ErrSettingsNotConfigured)
}
