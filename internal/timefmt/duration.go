package timefmt

import (
	"strconv"
	"strings"
	"time"
)

// Locale selects the language used for rendered durations and timestamps.
type Locale string

const (
	English Locale = "en"
	Persian Locale = "fa"
)

// ParseLocale maps a configuration value onto a supported Locale, falling back to English.
func ParseLocale(s string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case Persian:
		return Persian
	default:
		return English
	}
}

type unitNames struct {
	singular, plural string
}

type vocabulary struct {
	day, hour, minute, second unitNames
	conjunction               string
	zero                      string
}

var vocabularies = map[Locale]vocabulary{
	English: {
		day:         unitNames{"day", "days"},
		hour:        unitNames{"hour", "hours"},
		minute:      unitNames{"minute", "minutes"},
		second:      unitNames{"second", "seconds"},
		conjunction: " and ",
		zero:        "0 seconds",
	},
	Persian: {
		day:         unitNames{"روز", "روز"},
		hour:        unitNames{"ساعت", "ساعت"},
		minute:      unitNames{"دقیقه", "دقیقه"},
		second:      unitNames{"ثانیه", "ثانیه"},
		conjunction: " و ",
		zero:        "0 ثانیه",
	},
}

// Elapsed returns the milliseconds between from and to. A negative span
// (from lies in the future) is clamped to zero.
func Elapsed(from, to time.Time) int64 {
	ms := to.Sub(from).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// FormatDuration renders a millisecond span as whole days, hours, minutes and
// seconds, largest unit first, skipping units that are zero.
func FormatDuration(ms int64, locale Locale) string {
	v, ok := vocabularies[locale]
	if !ok {
		v = vocabularies[English]
	}
	if ms <= 0 {
		return v.zero
	}

	seconds := ms / 1000
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	remaining := seconds % 60

	var parts []string
	for _, p := range []struct {
		n     int64
		names unitNames
	}{
		{days, v.day},
		{hours, v.hour},
		{minutes, v.minute},
		{remaining, v.second},
	} {
		if p.n == 0 {
			continue
		}
		name := p.names.plural
		if p.n == 1 {
			name = p.names.singular
		}
		parts = append(parts, strconv.FormatInt(p.n, 10)+" "+name)
	}

	if len(parts) == 0 {
		return v.zero
	}
	return strings.Join(parts, v.conjunction)
}
