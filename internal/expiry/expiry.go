// Package expiry classifies kit items by freshness relative to a given "now".
package expiry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"depremkit/internal/models"
)

// DateLayout is the calendar-date format used for expiration dates.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusGood     Status = "good"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

// ErrNoExpiration is returned when classification is requested for an item
// that does not expire.
var ErrNoExpiration = errors.New("item has no expiration date")

// Verdict is the freshness of one expiration date at one instant.
type Verdict struct {
	Status    Status `json:"status"`
	DaysDelta int    `json:"days_delta"`
}

// DaysUntil returns ceil((expiration - now) / 24h).
func DaysUntil(expiration, now time.Time) int {
	diff := expiration.Sub(now)
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

// Classify maps an expiration instant to a verdict. threshold is the
// inclusive number of days that still counts as "expiring".
func Classify(expiration, now time.Time, threshold int) Verdict {
	days := DaysUntil(expiration, now)
	switch {
	case days < 0:
		return Verdict{Status: StatusExpired, DaysDelta: days}
	case days <= threshold:
		return Verdict{Status: StatusExpiring, DaysDelta: days}
	default:
		return Verdict{Status: StatusGood, DaysDelta: days}
	}
}

// ParseDate parses an expiration date in loc. A full RFC 3339 timestamp is
// accepted as well.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrNoExpiration
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// ClassifyDate parses date in now's location and classifies it.
func ClassifyDate(date string, now time.Time, threshold int) (Verdict, error) {
	exp, err := ParseDate(date, now.Location())
	if err != nil {
		return Verdict{}, err
	}
	return Classify(exp, now, threshold), nil
}

// ClassifyItem classifies item.ExpirationDate. It returns ErrNoExpiration for
// items that do not expire.
func ClassifyItem(item models.Item, now time.Time, threshold int) (Verdict, error) {
	if !item.HasExpiration() {
		return Verdict{}, ErrNoExpiration
	}
	return ClassifyDate(item.ExpirationDate, now, threshold)
}

// IsExpired reports whether date lies before now by calendar-day rounding.
func IsExpired(date string, now time.Time) bool {
	v, err := ClassifyDate(date, now, 0)
	return err == nil && v.Status == StatusExpired
}

// IsExpiringSoon reports whether date lies within [0, threshold] days of now.
func IsExpiringSoon(date string, now time.Time, threshold int) bool {
	v, err := ClassifyDate(date, now, threshold)
	return err == nil && v.Status == StatusExpiring
}

// DateString formats t as a calendar date in its own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays returns the calendar date days after t.
func AddDays(t time.Time, days int) string {
	return t.AddDate(0, 0, days).Format(DateLayout)
}
