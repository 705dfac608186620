package gesture

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitebuddy-be/internal/validation"
)

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// TimeEntry is a 12-hour clock value as typed into the override form.
type TimeEntry struct {
	Hour     int
	Minute   int
	Meridiem Meridiem
}

func (e TimeEntry) String() string {
	return fmt.Sprintf("%d:%02d %s", e.Hour, e.Minute, e.Meridiem)
}

// Matches compares in constant time.
func (e TimeEntry) Matches(other TimeEntry) bool {
	return subtle.ConstantTimeCompare([]byte(e.String()), []byte(other.String())) == 1
}

// EntryFromTime converts a wall clock reading to the form's representation.
func EntryFromTime(t time.Time) TimeEntry {
	h := t.Hour()
	m := AM
	if h >= 12 {
		m = PM
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return TimeEntry{Hour: h, Minute: t.Minute(), Meridiem: m}
}

// ParseTimeEntry validates raw form input. Errors are *validation.FieldError
// and are meant to be shown to the user.
func ParseTimeEntry(hour, minute, meridiem string) (TimeEntry, error) {
	h, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || h < 1 || h > 12 {
		return TimeEntry{}, &validation.FieldError{Field: "hour", Reason: "must be between 1 and 12"}
	}

	rawMinute := strings.TrimSpace(minute)
	m, err := strconv.Atoi(rawMinute)
	if err != nil || len(rawMinute) > 2 || m < 0 || m > 59 {
		return TimeEntry{}, &validation.FieldError{Field: "minute", Reason: "must be between 0 and 59"}
	}

	mer := Meridiem(strings.ToUpper(strings.TrimSpace(meridiem)))
	if mer != AM && mer != PM {
		return TimeEntry{}, &validation.FieldError{Field: "meridiem", Reason: "must be AM or PM"}
	}

	return TimeEntry{Hour: h, Minute: m, Meridiem: mer}, nil
}
