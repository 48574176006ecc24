package models

import (
	"time"

	"github.com/stockdesk/backend/internal/validate"
)

// Affiliate tracks a registered affiliate
type Affiliate struct {
	AffiliateID       string    `json:"affiliate_id"`
	UID               string    `json:"uid"`
	LastUpdated       time.Time `json:"last_updated"`
	DatetimeRecruited time.Time `json:"datetime_recruited"`
	TotalRecruits     int64     `json:"total_recruits"`
	IsActive          bool      `json:"is_active"`
	IsDeleted         bool      `json:"is_deleted"`
}

// NewAffiliate constructs a validated affiliate from raw field values.
// Validation fails fast on the first bad field; the recruitment
// timestamp is set here and never touched again.
func NewAffiliate(data map[string]any) (*Affiliate, error) {
	affiliateID, err := validate.ID("affiliate_id", data["affiliate_id"])
	if err != nil {
		return nil, err
	}
	uid, err := validate.ID("uid", data["uid"])
	if err != nil {
		return nil, err
	}
	totalRecruits, err := optInt(data, "total_recruits", 0)
	if err != nil {
		return nil, err
	}
	isActive, err := optBool(data, "is_active", true)
	if err != nil {
		return nil, err
	}
	isDeleted, err := optBool(data, "is_deleted", false)
	if err != nil {
		return nil, err
	}
	now := Now()
	return &Affiliate{
		AffiliateID:       affiliateID,
		UID:               uid,
		LastUpdated:       now,
		DatetimeRecruited: now,
		TotalRecruits:     totalRecruits,
		IsActive:          isActive,
		IsDeleted:         isDeleted,
	}, nil
}

// Apply reassigns the mutable fields from a full raw field set.
// The instance is untouched if any field fails validation.
func (a *Affiliate) Apply(data map[string]any) error {
	next, err := NewAffiliate(data)
	if err != nil {
		return err
	}
	next.DatetimeRecruited = a.DatetimeRecruited
	*a = *next
	return nil
}

// Equal compares affiliates by natural key only
func (a *Affiliate) Equal(other *Affiliate) bool {
	if other == nil {
		return false
	}
	return a.AffiliateID == other.AffiliateID && a.UID == other.UID
}

// Recruit tracks a recruited user and the membership plan they pay on
type Recruit struct {
	AffiliateID       string    `json:"affiliate_id"`
	ReferrerUID       string    `json:"referrer_uid"`
	DatetimeRecruited time.Time `json:"datetime_recruited"`
	DatetimeUpdated   time.Time `json:"datetime_updated"`
	IsMember          bool      `json:"is_member"`
	PlanID            string    `json:"plan_id"`
	IsActive          bool      `json:"is_active"`
	IsDeleted         bool      `json:"is_deleted"`
}

// NewRecruit constructs a validated recruit record
func NewRecruit(data map[string]any) (*Recruit, error) {
	affiliateID, err := validate.ID("affiliate_id", data["affiliate_id"])
	if err != nil {
		return nil, err
	}
	referrerUID, err := validate.ID("referrer_uid", data["referrer_uid"])
	if err != nil {
		return nil, err
	}
	planID, err := validate.ID("plan_id", data["plan_id"])
	if err != nil {
		return nil, err
	}
	isMember, err := optBool(data, "is_member", false)
	if err != nil {
		return nil, err
	}
	isActive, err := optBool(data, "is_active", true)
	if err != nil {
		return nil, err
	}
	isDeleted, err := optBool(data, "is_deleted", false)
	if err != nil {
		return nil, err
	}
	now := Now()
	return &Recruit{
		AffiliateID:       affiliateID,
		ReferrerUID:       referrerUID,
		DatetimeRecruited: now,
		DatetimeUpdated:   now,
		IsMember:          isMember,
		PlanID:            planID,
		IsActive:          isActive,
		IsDeleted:         isDeleted,
	}, nil
}

// Apply reassigns the mutable fields, keeping the recruitment timestamp
func (r *Recruit) Apply(data map[string]any) error {
	next, err := NewRecruit(data)
	if err != nil {
		return err
	}
	next.DatetimeRecruited = r.DatetimeRecruited
	*r = *next
	return nil
}

// Equal compares recruits by natural key only
func (r *Recruit) Equal(other *Recruit) bool {
	if other == nil {
		return false
	}
	return r.AffiliateID == other.AffiliateID && r.ReferrerUID == other.ReferrerUID
}

// EarningsRecord tracks periodical earnings per affiliate
type EarningsRecord struct {
	AffiliateID string    `json:"affiliate_id"`
	StartDate   time.Time `json:"start_date"`
	LastUpdated time.Time `json:"last_updated"`
	TotalEarned Amount    `json:"total_earned"`
	IsPaid      bool      `json:"is_paid"`
	OnHold      bool      `json:"on_hold"`
}

// NewEarningsRecord constructs a validated earnings record; the start
// date is stamped on creation and immutable afterwards
func NewEarningsRecord(data map[string]any) (*EarningsRecord, error) {
	affiliateID, err := validate.ID("affiliate_id", data["affiliate_id"])
	if err != nil {
		return nil, err
	}
	totalEarned, err := NewAmount("total_earned", data["total_earned"])
	if err != nil {
		return nil, err
	}
	isPaid, err := optBool(data, "is_paid", false)
	if err != nil {
		return nil, err
	}
	onHold, err := optBool(data, "on_hold", false)
	if err != nil {
		return nil, err
	}
	now := Now()
	return &EarningsRecord{
		AffiliateID: affiliateID,
		StartDate:   now,
		LastUpdated: now,
		TotalEarned: totalEarned,
		IsPaid:      isPaid,
		OnHold:      onHold,
	}, nil
}

// Apply reassigns the mutable fields, keeping the start date
func (e *EarningsRecord) Apply(data map[string]any) error {
	next, err := NewEarningsRecord(data)
	if err != nil {
		return err
	}
	next.StartDate = e.StartDate
	*e = *next
	return nil
}

// Equal compares earnings records by natural key only
func (e *EarningsRecord) Equal(other *EarningsRecord) bool {
	if other == nil {
		return false
	}
	return e.AffiliateID == other.AffiliateID && e.StartDate.Equal(other.StartDate)
}

// EarningsTransaction records amounts paid out of earnings records,
// with the ordered list of transaction items it covers
type EarningsTransaction struct {
	AffiliateID       string   `json:"affiliate_id"`
	TotalEarned       Amount   `json:"total_earned"`
	TransactionIDList []string `json:"transaction_id_list"`
}

// NewEarningsTransaction constructs a validated payout transaction
func NewEarningsTransaction(data map[string]any) (*EarningsTransaction, error) {
	affiliateID, err := validate.ID("affiliate_id", data["affiliate_id"])
	if err != nil {
		return nil, err
	}
	totalEarned, err := NewAmount("total_earned", data["total_earned"])
	if err != nil {
		return nil, err
	}
	var ids []string
	switch raw := data["transaction_id_list"].(type) {
	case nil:
	case []string:
		ids = append(ids, raw...)
	case []any:
		for _, item := range raw {
			id, err := validate.ID("transaction_id_list", item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	default:
		return nil, &validate.FieldError{Field: "transaction_id_list", Kind: validate.TypeMismatch, Reason: "can only be a list of ids"}
	}
	return &EarningsTransaction{
		AffiliateID:       affiliateID,
		TotalEarned:       totalEarned,
		TransactionIDList: ids,
	}, nil
}

// Equal compares payout transactions by affiliate id only
func (t *EarningsTransaction) Equal(other *EarningsTransaction) bool {
	if other == nil {
		return false
	}
	return t.AffiliateID == other.AffiliateID
}

// TransactionItem records a single payout line item
type TransactionItem struct {
	TransactionID   string    `json:"transaction_id"`
	Amount          Amount    `json:"amount"`
	TransactionDate time.Time `json:"transaction_date"`
}

// NewTransactionItem constructs a validated payout line item
func NewTransactionItem(data map[string]any) (*TransactionItem, error) {
	transactionID, err := validate.ID("transaction_id", data["transaction_id"])
	if err != nil {
		return nil, err
	}
	amount, err := NewAmount("amount", data["amount"])
	if err != nil {
		return nil, err
	}
	return &TransactionItem{
		TransactionID:   transactionID,
		Amount:          amount,
		TransactionDate: Now(),
	}, nil
}

// AffiliateSettings carries the payout percentage applied to earnings
type AffiliateSettings struct {
	EarningsPercent int64 `json:"earnings_percent"`
}

// NewAffiliateSettings validates the payout percentage, 0-100 inclusive
func NewAffiliateSettings(data map[string]any) (*AffiliateSettings, error) {
	percent, err := validate.Percent("earnings_percent", data["earnings_percent"])
	if err != nil {
		return nil, err
	}
	return &AffiliateSettings{EarningsPercent: percent}, nil
}

// MembershipInvoice is raised per member recruit per billing period
type MembershipInvoice struct {
	InvoiceID   string    `json:"invoice_id"`
	AffiliateID string    `json:"affiliate_id"`
	ReferrerUID string    `json:"referrer_uid"`
	PlanID      string    `json:"plan_id"`
	Period      string    `json:"period"`
	Total       Amount    `json:"total"`
	IsPaid      bool      `json:"is_paid"`
	DateCreated time.Time `json:"date_created"`
}

// NewMembershipInvoice constructs a validated membership invoice
func NewMembershipInvoice(data map[string]any) (*MembershipInvoice, error) {
	invoiceID, err := validate.ID("invoice_id", data["invoice_id"])
	if err != nil {
		return nil, err
	}
	affiliateID, err := validate.ID("affiliate_id", data["affiliate_id"])
	if err != nil {
		return nil, err
	}
	referrerUID, err := validate.ID("referrer_uid", data["referrer_uid"])
	if err != nil {
		return nil, err
	}
	planID, err := validate.ID("plan_id", data["plan_id"])
	if err != nil {
		return nil, err
	}
	period, err := validate.ID("period", data["period"])
	if err != nil {
		return nil, err
	}
	total, err := NewAmount("total", data["total"])
	if err != nil {
		return nil, err
	}
	isPaid, err := optBool(data, "is_paid", false)
	if err != nil {
		return nil, err
	}
	return &MembershipInvoice{
		InvoiceID:   invoiceID,
		AffiliateID: affiliateID,
		ReferrerUID: referrerUID,
		PlanID:      planID,
		Period:      period,
		Total:       total,
		IsPaid:      isPaid,
		DateCreated: Now(),
	}, nil
}

// Equal compares invoices by invoice id only
func (m *MembershipInvoice) Equal(other *MembershipInvoice) bool {
	if other == nil {
		return false
	}
	return m.InvoiceID == other.InvoiceID
}
