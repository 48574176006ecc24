package models

import (
	"github.com/stockdesk/backend/internal/validate"
)

// Currency configuration shared by every model that carries money or
// volume values. Set once at startup, read-only afterwards.
var (
	supportedCurrencies = []string{"PHP", "USD", "EUR", "GBP", "JPY", "AUD"}
	defaultCurrency     = "PHP"
)

// SetCurrencies installs the currency allow-list and default code
func SetCurrencies(codes []string, def string) {
	if len(codes) > 0 {
		supportedCurrencies = codes
	}
	if def != "" {
		defaultCurrency = def
	}
}

// SupportedCurrencies returns the configured allow-list
func SupportedCurrencies() []string {
	return supportedCurrencies
}

// DefaultCurrency returns the configured default currency code
func DefaultCurrency() string {
	return defaultCurrency
}

// Amount is a structured monetary value: magnitude plus currency code,
// validated and persisted as one unit
type Amount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewAmount validates a raw composite value into an Amount. Accepts an
// Amount or the map shape produced by its JSON projection; anything
// else is a type mismatch on the owning field.
func NewAmount(field string, v any) (Amount, error) {
	switch raw := v.(type) {
	case Amount:
		if err := raw.Validate(field); err != nil {
			return Amount{}, err
		}
		return raw, nil
	case *Amount:
		if raw == nil {
			return Amount{}, &validate.FieldError{Field: field, Kind: validate.Missing, Reason: "cannot be empty"}
		}
		if err := raw.Validate(field); err != nil {
			return Amount{}, err
		}
		return *raw, nil
	case map[string]any:
		amount, err := validate.NonNegInt(field, raw["amount"])
		if err != nil {
			return Amount{}, err
		}
		currency, err := validate.Currency(field, raw["currency"], supportedCurrencies)
		if err != nil {
			return Amount{}, err
		}
		return Amount{Amount: amount, Currency: currency}, nil
	case nil:
		return Amount{}, &validate.FieldError{Field: field, Kind: validate.Missing, Reason: "cannot be empty"}
	default:
		return Amount{}, &validate.FieldError{Field: field, Kind: validate.TypeMismatch, Reason: "is invalid"}
	}
}

// Validate checks the amount as a unit: non-negative magnitude and a
// supported currency code
func (a Amount) Validate(field string) error {
	if _, err := validate.NonNegInt(field, a.Amount); err != nil {
		return err
	}
	if _, err := validate.Currency(field, a.Currency, supportedCurrencies); err != nil {
		return err
	}
	return nil
}

// ZeroAmount returns a zero-valued amount in the given currency
func ZeroAmount(currency string) Amount {
	if currency == "" {
		currency = defaultCurrency
	}
	return Amount{Amount: 0, Currency: currency}
}
