package binder

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	dateRE = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)

	iso8601Layouts = []string{
		"2006-01-02",
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02T15",
	}
)

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The reason the empty string is allowed is that this validator can be
// used to clear out values. However, this is only useful in that case, so if
// you're using this validator but want the value to be required, add a `ne=` to
// the validate tag so that the empty string is disallowed.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// iso8601Validator ensures the value is a real calendar date, optionally with
// a time of day, in one of the ISO 8601 extended formats.
func iso8601Validator(fl validator.FieldLevel) bool {
	_, ok := ParseDate(fl.Field().String())
	return ok
}

// ParseDate parses an ISO 8601 date or date-time and normalizes it to
// midnight UTC of the calendar date it names.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range iso8601Layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
