package usage

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dateLayouts are tried in order; the first match wins. Month-first comes
// before day-first so "03/02/2024" is the 2nd of March.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02/01/2006",
	"02-01-2006",
}

// ParseDate reads a ledger key as a civil date in loc.
func ParseDate(key string, loc *time.Location) (time.Time, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, key, loc); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(key, loc)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), true
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// guestCount accepts either a number or the list of guests itself.
func guestCount(value any) (float64, bool) {
	switch v := value.(type) {
	case []any:
		return float64(len(v)), true
	case []string:
		return float64(len(v)), true
	default:
		return numeric(value)
	}
}
