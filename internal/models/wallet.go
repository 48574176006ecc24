package models

import (
	"github.com/stockdesk/backend/internal/validate"
)

// Wallet holds a user's available funds and payout address
type Wallet struct {
	UID            string `json:"uid"`
	AvailableFunds Amount `json:"available_funds"`
	PaypalAddress  string `json:"paypal_address"`
}

// NewWallet constructs a validated wallet from raw field values
func NewWallet(data map[string]any) (*Wallet, error) {
	uid, err := validate.ID("uid", data["uid"])
	if err != nil {
		return nil, err
	}
	funds, err := NewAmount("available_funds", data["available_funds"])
	if err != nil {
		return nil, err
	}
	paypal, err := optString(data, "paypal_address")
	if err != nil {
		return nil, err
	}
	return &Wallet{
		UID:            uid,
		AvailableFunds: funds,
		PaypalAddress:  paypal,
	}, nil
}

// Apply reassigns the wallet fields from a full raw field set
func (w *Wallet) Apply(data map[string]any) error {
	next, err := NewWallet(data)
	if err != nil {
		return err
	}
	*w = *next
	return nil
}

// Credit adds to the available funds
func (w *Wallet) Credit(amount int64) error {
	if _, err := validate.NonNegInt("amount", amount); err != nil {
		return err
	}
	w.AvailableFunds.Amount += amount
	return nil
}

// Debit subtracts from the available funds; the balance can never go
// below zero
func (w *Wallet) Debit(amount int64) error {
	if _, err := validate.NonNegInt("amount", amount); err != nil {
		return err
	}
	if w.AvailableFunds.Amount-amount < 0 {
		return &validate.FieldError{Field: "available_funds", Kind: validate.OutOfRange, Reason: "cannot go below zero"}
	}
	w.AvailableFunds.Amount -= amount
	return nil
}

// Equal compares wallets by uid only
func (w *Wallet) Equal(other *Wallet) bool {
	if other == nil {
		return false
	}
	return w.UID == other.UID
}
