package models

import (
	"fmt"
	"strings"
	"time"
)

// Visitor represents one check-in record.
// Visitors are created by the public submission endpoint and only ever
// removed by an admin; they are never mutated in place.
type Visitor struct {
	// ID is assigned by the store. Positive, unique and strictly increasing.
	ID int64 `json:"id"`

	// Name is the visitor's full name.
	Name string `json:"name"`

	// Email is the visitor's contact address.
	Email string `json:"email"`

	// Phone is stored exactly as submitted.
	Phone string `json:"phone"`

	// Company is optional and serializes as null when absent.
	Company *string `json:"company"`

	// Purpose is the reason for the visit (e.g. "Interview", "Delivery").
	Purpose string `json:"purpose"`

	// Message is an optional free-form note.
	Message *string `json:"message"`

	// CheckinTime is the caller-supplied check-in timestamp in normalized
	// ISO-8601 form (see FormatTimestamp). Lexical order matches time order
	// for timestamps sharing the same offset.
	CheckinTime string `json:"checkin_time"`
}

// Clone returns a deep copy so callers never alias store-owned memory.
func (v Visitor) Clone() Visitor {
	c := v
	if v.Company != nil {
		company := *v.Company
		c.Company = &company
	}
	if v.Message != nil {
		message := *v.Message
		c.Message = &message
	}
	return c
}

// NewVisitor is the body of a public check-in submission.
type NewVisitor struct {
	Name        string  `json:"name" validate:"required,notblank"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone" validate:"required"`
	Company     *string `json:"company"`
	Purpose     string  `json:"purpose" validate:"required,notblank"`
	Message     *string `json:"message"`
	CheckinTime string  `json:"checkin_time" validate:"required"`
}

// ToVisitor converts the submission into a Visitor without an ID.
// The check-in time is parsed and normalized; an unparseable value is an error.
func (n NewVisitor) ToVisitor() (Visitor, error) {
	ts, err := ParseTimestamp(n.CheckinTime)
	if err != nil {
		return Visitor{}, err
	}
	v := Visitor{
		Name:        strings.TrimSpace(n.Name),
		Email:       strings.TrimSpace(n.Email),
		Phone:       n.Phone,
		Company:     n.Company,
		Purpose:     n.Purpose,
		Message:     n.Message,
		CheckinTime: FormatTimestamp(ts, hasOffset(n.CheckinTime)),
	}
	return v.Clone(), nil
}

// timestampLayouts are tried in order. Layouts with a zone come first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date or date-time. Values without an
// offset are returned in UTC and keep their wall-clock reading.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}

// FormatTimestamp renders t as 2006-01-02T15:04:05, adding microseconds when
// non-zero and the numeric offset when withOffset is set (UTC renders as +00:00).
func FormatTimestamp(t time.Time, withOffset bool) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond()/1000 != 0 {
		layout += ".000000"
	}
	if withOffset {
		layout += "-07:00"
	}
	return t.Format(layout)
}

// CheckinDate returns the calendar date of a stored timestamp, read in the
// timestamp's own offset.
func CheckinDate(s string) (time.Time, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// Date truncates t to midnight UTC of its wall-clock calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hasOffset(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) <= len("2006-01-02") {
		return false
	}
	return strings.ContainsAny(s[len("2006-01-02"):], "Z+-")
}
