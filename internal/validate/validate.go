// Package validate holds the local input checks that run before any request
// reaches the network. All functions are pure.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMaxQueryLength bounds Gmail search query strings.
	DefaultMaxQueryLength = 1024
	// MaxIDLength bounds message and thread identifiers.
	MaxIDLength = 128

	dateLayout      = "2006-01-02"
	queryDateLayout = "2006/01/02"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Error is a failed local check. It is never retried.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QueryLength rejects queries longer than maxLen characters.
func QueryLength(query string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxQueryLength
	}
	if n := utf8.RuneCountInString(query); n > maxLen {
		return &Error{Field: "query", Reason: fmt.Sprintf("length %d exceeds maximum %d", n, maxLen)}
	}
	return nil
}

// Query requires a non-blank query within maxLen characters.
func Query(query string, maxLen int) error {
	if strings.TrimSpace(query) == "" {
		return &Error{Field: "query", Reason: "must not be empty"}
	}
	return QueryLength(query, maxLen)
}

// ResourceID checks the shape of a message or thread identifier. label names
// the identifier in the error, e.g. "message ID".
func ResourceID(id, label string) error {
	switch {
	case id == "":
		return &Error{Field: label, Reason: "must not be empty"}
	case len(id) > MaxIDLength:
		return &Error{Field: label, Reason: fmt.Sprintf("length %d exceeds maximum %d", len(id), MaxIDLength)}
	case !idPattern.MatchString(id):
		return &Error{Field: label, Reason: "must contain only letters, digits, '-' or '_'"}
	}
	return nil
}

// Date parses a YYYY-MM-DD date.
func Date(s, label string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &Error{Field: label, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return d, nil
}

// DateRange checks both dates and requires end to be after start.
func DateRange(start, end string) (time.Time, time.Time, error) {
	s, err := Date(start, "start date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := Date(end, "end date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, &Error{Field: "date range", Reason: fmt.Sprintf("end date %s must be after start date %s", end, start)}
	}
	return s, e, nil
}

// DateQuery builds the Gmail query selecting messages received on or after
// start and before end.
func DateQuery(start, end string) (string, error) {
	s, e, err := DateRange(start, end)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("after:%s before:%s", s.Format(queryDateLayout), e.Format(queryDateLayout)), nil
}
