package occupancy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"guesthouse-occupancy-backend/internal/metrics"
	"guesthouse-occupancy-backend/internal/model"
	"guesthouse-occupancy-backend/internal/parse"
	"guesthouse-occupancy-backend/internal/store"
	"guesthouse-occupancy-backend/internal/timefmt"
)

// Options controls presentation and bootstrapping behaviour of the Service.
type Options struct {
	Locale       timefmt.Locale
	Location     *time.Location
	DefaultTitle string
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Service composes the guest registry and the settings store into the
// operations exposed to the HTTP layer. Durations are always recomputed from
// EnterTime at call time.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	opts    Options

	mu        sync.RWMutex
	listeners []func()
}

// NewService creates a Service. m may be nil.
func NewService(s store.Store, m *metrics.Metrics, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "admin settings"
	}
	return &Service{store: s, metrics: m, opts: opts}
}

// OnChange registers fn to run after any successful mutation.
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) changed() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.listeners {
		fn()
	}
}

// AdminSnapshot is the administrator overview.
type AdminSnapshot struct {
	ActiveGuests             int64 `json:"activeGuests"`
	Capacity                 int   `json:"capacity"`
	SettlementThresholdHours int   `json:"settlementThresholdHours"`
}

// GuestView is a guest with its derived, freshly computed fields.
type GuestView struct {
	ID                 string    `json:"id"`
	UID                uint64    `json:"UID"`
	Name               string    `json:"name"`
	Family             string    `json:"family"`
	EnterTime          time.Time `json:"enterTime"`
	FormattedEnterTime string    `json:"formattedEnterTime"`
	Duration           int64     `json:"duration"`
	FormattedDuration  string    `json:"formattedDuration"`
}

// ExitReport is the occupancy report with the conditional overstay roster.
type ExitReport struct {
	SettlementThresholdHours int         `json:"settlementThresholdHours"`
	Capacity                 int         `json:"capacity"`
	ActiveGuests             int64       `json:"activeGuests"`
	Percent                  string      `json:"percent"`
	Completed95              bool        `json:"completed95"`
	OverstayRoster           []GuestView `json:"overstayRoster"`
}

// FacilityInfo is the public summary shown on the landing page.
type FacilityInfo struct {
	Title          string `json:"title"`
	Capacity       int    `json:"capacity"`
	EachPersonTime int    `json:"eachPersonTime"`
}

// RegisterOutcome is returned by RegisterGuest.
type RegisterOutcome struct {
	Result store.RegisterResult
	Guest  *GuestView
}

// AdminSnapshot reports the authoritative guest count against the settings.
func (s *Service) AdminSnapshot(ctx context.Context) (*AdminSnapshot, error) {
	fs, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.CountGuests(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminSnapshot{
		ActiveGuests:             active,
		Capacity:                 fs.Capacity,
		SettlementThresholdHours: fs.SettlementThresholdHours,
	}, nil
}

// FacilityInfo returns the facility title, capacity and nominal stay length.
func (s *Service) FacilityInfo(ctx context.Context) (*FacilityInfo, error) {
	fs, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &FacilityInfo{Title: fs.Title, Capacity: fs.Capacity, EachPersonTime: fs.EachPersonTime}, nil
}

// GuestRoster lists every guest, most recently registered first.
func (s *Service) GuestRoster(ctx context.Context) ([]GuestView, error) {
	guests, err := s.store.ListGuests(ctx)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	views := make([]GuestView, len(guests))
	for i, g := range guests {
		views[len(guests)-1-i] = s.view(g, now)
	}
	return views, nil
}

// ExitReport computes occupancy against capacity. The overstay roster is only
// disclosed once occupancy reaches 95%, oldest registration first.
func (s *Service) ExitReport(ctx context.Context) (*ExitReport, error) {
	start := time.Now()
	fs, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	guests, err := s.store.ListGuests(ctx)
	if err != nil {
		return nil, err
	}

	active := int64(len(guests))
	ratio := occupancyRatio(active, fs.Capacity)
	report := &ExitReport{
		SettlementThresholdHours: fs.SettlementThresholdHours,
		Capacity:                 fs.Capacity,
		ActiveGuests:             active,
		Percent:                  formatPercent(active, fs.Capacity),
		Completed95:              reachedGate(active, fs.Capacity),
		OverstayRoster:           []GuestView{},
	}

	now := s.opts.Now()
	overstaying := 0
	for _, g := range guests {
		v := s.view(g, now)
		if !IsSettled(v.Duration, fs.SettlementThresholdHours) {
			continue
		}
		overstaying++
		if report.Completed95 {
			report.OverstayRoster = append(report.OverstayRoster, v)
		}
	}

	if s.metrics != nil {
		s.metrics.ActiveGuests.Set(float64(active))
		s.metrics.OccupancyRatio.Set(ratio)
		s.metrics.OverstayingGuests.Set(float64(overstaying))
		s.metrics.ObserveReport(start)
	}
	return report, nil
}

// RegisterGuest validates and registers a guest under uid.
func (s *Service) RegisterGuest(ctx context.Context, uid uint64, name, family string) (*RegisterOutcome, error) {
	name, family = parse.Name(name), parse.Name(family)
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateName("family", family); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate guest id: %w", err)
	}
	now := s.opts.Now().UTC()
	guest := &model.Guest{
		ID:        id.String(),
		UID:       uid,
		Name:      name,
		Family:    family,
		EnterTime: now,
	}
	res, err := s.store.RegisterGuest(ctx, guest)
	if err != nil {
		return nil, err
	}

	if res == store.RegisterAlreadyExists {
		if s.metrics != nil {
			s.metrics.DuplicateRegistrations.Inc()
		}
		return &RegisterOutcome{Result: res}, nil
	}

	if s.metrics != nil {
		s.metrics.GuestsRegistered.Inc()
	}
	s.changed()
	v := s.view(*guest, now)
	return &RegisterOutcome{Result: res, Guest: &v}, nil
}

// RemoveGuest removes the guest holding uid, if any.
func (s *Service) RemoveGuest(ctx context.Context, uid uint64) (store.RemoveResult, error) {
	res, err := s.store.RemoveGuest(ctx, uid)
	if err != nil {
		return "", err
	}
	if res == store.RemoveNotFound {
		if s.metrics != nil {
			s.metrics.RemovalMisses.Inc()
		}
		return res, nil
	}
	if s.metrics != nil {
		s.metrics.GuestsRemoved.Inc()
	}
	s.changed()
	return res, nil
}

// UpdateSettings validates and stores new administrator settings.
func (s *Service) UpdateSettings(ctx context.Context, update store.SettingsUpdate) (*model.FacilitySettings, error) {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"capacity", update.Capacity},
		{"eachPersonTime", update.EachPersonTime},
		{"settlementThresholdHours", update.SettlementThresholdHours},
	} {
		if f.value <= 0 {
			return nil, &ValidationError{Field: f.name, Code: CodeInvalidValue}
		}
	}

	fs, err := s.store.UpdateSettings(ctx, update, s.opts.DefaultTitle)
	if err != nil {
		return nil, err
	}
	s.changed()
	return fs, nil
}

// Reconcile rewrites the cached active-guest counter from the guest count.
func (s *Service) Reconcile(ctx context.Context) (corrected bool, err error) {
	before, after, err := s.store.ReconcileActiveGuests(ctx)
	if err != nil {
		return false, fmt.Errorf("reconcile active guests: %w", err)
	}
	if before == after {
		return false, nil
	}
	if s.metrics != nil {
		s.metrics.CounterCorrections.Inc()
	}
	return true, nil
}

// Bootstrap makes sure the settings row exists.
func (s *Service) Bootstrap(ctx context.Context, defaults model.FacilitySettings) (*model.FacilitySettings, error) {
	if strings.TrimSpace(defaults.Title) == "" {
		defaults.Title = s.opts.DefaultTitle
	}
	return s.store.EnsureSettings(ctx, defaults)
}

func validateName(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Code: CodeMissingFields}
	}
	if utf8.RuneCountInString(value) > model.NameMaxLength {
		return &ValidationError{Field: field, Code: CodeInvalidValue}
	}
	return nil
}

func (s *Service) view(g model.Guest, now time.Time) GuestView {
	d := timefmt.Elapsed(g.EnterTime, now)
	return GuestView{
		ID:                 g.ID,
		UID:                g.UID,
		Name:               g.Name,
		Family:             g.Family,
		EnterTime:          g.EnterTime,
		FormattedEnterTime: timefmt.FormatEnterTime(g.EnterTime, s.opts.Location, s.opts.Locale),
		Duration:           d,
		FormattedDuration:  timefmt.FormatDuration(d, s.opts.Locale),
	}
}

func occupancyRatio(active int64, capacity int) float64 {
	if capacity <= 0 {
		if active > 0 {
			return 1
		}
		return 0
	}
	return float64(active) / float64(capacity)
}

// formatPercent renders active/capacity*100 rounded half-up to two decimals.
func formatPercent(active int64, capacity int) string {
	if capacity <= 0 {
		if active > 0 {
			return "100.00"
		}
		return "0.00"
	}
	c := int64(capacity)
	hundredths := (active*10000*2 + c) / (2 * c)
	return fmt.Sprintf("%d.%02d", hundredths/100, hundredths%100)
}
