package models

import (
	"fmt"
	"time"

	"github.com/stockdesk/backend/internal/validate"
)

// tz is the zone applied when stamping record dates, configured at startup
var tz = time.FixedZone("UTC+8", 8*60*60)

// SetUTCOffset installs the zone used for date stamping
func SetUTCOffset(offset time.Duration) {
	secs := int(offset / time.Second)
	tz = time.FixedZone(fmt.Sprintf("UTC%+d", secs/3600), secs)
}

// Now returns the current time in the configured zone
func Now() time.Time {
	return time.Now().In(tz)
}

// optBool reads an optional boolean field, defaulting when absent
func optBool(data map[string]any, field string, def bool) (bool, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return def, nil
	}
	return validate.Boolean(field, v)
}

// optInt reads an optional counter field, defaulting to zero when absent
func optInt(data map[string]any, field string, def int64) (int64, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return def, nil
	}
	return validate.NonNegInt(field, v)
}

// optString reads an optional string field; absent or empty means ""
func optString(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return "", nil
	}
	s, err := validate.TrimmedString(field, v)
	if err != nil {
		if validate.IsKind(err, validate.Missing) {
			return "", nil
		}
		return "", err
	}
	return s, nil
}

// optCurrency reads an optional currency field, defaulting when absent
func optCurrency(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return defaultCurrency, nil
	}
	return validate.Currency(field, v, supportedCurrencies)
}
