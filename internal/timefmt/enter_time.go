package timefmt

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// FormatEnterTime renders a registration timestamp in the given zone. The
// Persian locale uses the Solar Hijri calendar and the ق.ظ / ب.ظ meridiem.
func FormatEnterTime(t time.Time, loc *time.Location, locale Locale) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)

	if locale != Persian {
		return local.Format("2006/01/02 - 03:04 PM")
	}

	pt := ptime.New(local)
	meridiem := "ق.ظ"
	if local.Hour() >= 12 {
		meridiem = "ب.ظ"
	}
	return fmt.Sprintf("%04d/%02d/%02d - %s %s", pt.Year(), int(pt.Month()), pt.Day(), local.Format("03:04"), meridiem)
}
