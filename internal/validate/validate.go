package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind classifies why a field value was rejected
type Kind int

const (
	// Missing - nil or empty string on a required field
	Missing Kind = iota
	// TypeMismatch - value not of the declared kind
	TypeMismatch
	// OutOfRange - numeric value outside declared bounds
	OutOfRange
)

// FieldError reports a rejected field by name so callers can surface
// exactly which input was bad
type FieldError struct {
	Field  string
	Kind   Kind
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &FieldError{Field: field, Kind: Missing, Reason: "cannot be empty"}
}

func wrongType(field, want string) error {
	return &FieldError{Field: field, Kind: TypeMismatch, Reason: "can only be " + want}
}

func outOfRange(field, reason string) error {
	return &FieldError{Field: field, Kind: OutOfRange, Reason: reason}
}

// ID validates a required natural-key string: non-empty after trimming
func ID(field string, v any) (string, error) {
	s, err := TrimmedString(field, v)
	if err != nil {
		return "", err
	}
	return s, nil
}

// TrimmedString validates a required string and trims surrounding whitespace
func TrimmedString(field string, v any) (string, error) {
	if v == nil {
		return "", missing(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(field, "a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", missing(field)
	}
	return s, nil
}

// LowerName validates a required name-like string, trimmed and lowercased
func LowerName(field string, v any) (string, error) {
	s, err := TrimmedString(field, v)
	if err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

// NonNegInt validates an integer counter or amount: zero or positive.
// JSON numbers arrive as float64, so integral floats are accepted and
// fractional values are rejected.
func NonNegInt(field string, v any) (int64, error) {
	n, err := integer(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, outOfRange(field, "can only be a positive integer")
	}
	return n, nil
}

// Percent validates an integer percentage within 0-100 inclusive
func Percent(field string, v any) (int64, error) {
	n, err := integer(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 100 {
		return 0, outOfRange(field, "should be a percent")
	}
	return n, nil
}

// Boolean validates a bool; anything else is a type mismatch
func Boolean(field string, v any) (bool, error) {
	if v == nil {
		return false, wrongType(field, "a boolean")
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(field, "a boolean")
	}
	return b, nil
}

// Currency validates membership in the supplied currency allow-list.
// A non-member fails as a type mismatch, matching how the service has
// always reported unsupported currencies.
func Currency(field string, v any, allowed []string) (string, error) {
	s, err := TrimmedString(field, v)
	if err != nil {
		return "", err
	}
	for _, code := range allowed {
		if s == code {
			return s, nil
		}
	}
	return "", wrongType(field, "a valid currency")
}

// DateValue validates a date given as time.Time or a YYYY-MM-DD string
func DateValue(field string, v any) (time.Time, error) {
	if v == nil {
		return time.Time{}, missing(field)
	}
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, missing(field)
		}
		return d, nil
	case string:
		if strings.TrimSpace(d) == "" {
			return time.Time{}, missing(field)
		}
		trimmed := strings.TrimSpace(d)
		if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
			return parsed, nil
		}
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return time.Time{}, wrongType(field, "a date")
		}
		return parsed, nil
	default:
		return time.Time{}, wrongType(field, "a date")
	}
}

// integer coerces the raw value into an int64, rejecting fractional
// and non-numeric input
func integer(field string, v any) (int64, error) {
	if v == nil {
		return 0, missing(field)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, wrongType(field, "an integer")
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, wrongType(field, "an integer")
		}
		return i, nil
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, missing(field)
		}
		return 0, wrongType(field, "an integer")
	default:
		return 0, wrongType(field, "an integer")
	}
}

// IsKind reports whether err is a FieldError of the given kind
func IsKind(err error, kind Kind) bool {
	fe, ok := err.(*FieldError)
	return ok && fe.Kind == kind
}

// FieldName returns the offending field name, or "" if err is not a FieldError
func FieldName(err error) string {
	if fe, ok := err.(*FieldError); ok {
		return fe.Field
	}
	return ""
}
