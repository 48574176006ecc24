package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// fakeStore is an in-memory stand-in for the document store
type fakeStore struct {
	mu      sync.Mutex
	records map[string]map[string]json.RawMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]map[string]json.RawMessage{}}
}

func (f *fakeStore) Get(ctx context.Context, kind, key string) (store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.records[kind][key]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return store.Record{Kind: kind, Key: key, Doc: doc}, nil
}

func (f *fakeStore) List(ctx context.Context, kind string) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Record
	for key, doc := range f.records[kind] {
		out = append(out, store.Record{Kind: kind, Key: key, Doc: doc})
	}
	return out, nil
}

func (f *fakeStore) Put(ctx context.Context, kind, key string, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(kind, key, doc)
}

func (f *fakeStore) PutIfAbsent(ctx context.Context, kind, key string, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[kind][key]; ok {
		return store.ErrConflict
	}
	return f.put(kind, key, doc)
}

func (f *fakeStore) put(kind, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if f.records[kind] == nil {
		f.records[kind] = map[string]json.RawMessage{}
	}
	f.records[kind][key] = body
	return nil
}

func (f *fakeStore) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[kind])
}

func seedRecruit(t *testing.T, fs *fakeStore, affiliateID, referrerUID, planID string, isMember bool) {
	t.Helper()
	recruit, err := models.NewRecruit(map[string]any{
		"affiliate_id": affiliateID,
		"referrer_uid": referrerUID,
		"plan_id":      planID,
		"is_member":    isMember,
	})
	if err != nil {
		t.Fatalf("NewRecruit: %v", err)
	}
	if err := fs.Put(context.Background(), store.KindRecruits, recruitKey(affiliateID, referrerUID), recruit); err != nil {
		t.Fatalf("Put recruit: %v", err)
	}
}

func TestCreateMembershipInvoicesIsIdempotent(t *testing.T) {
	fs := newFakeStore()
	seedRecruit(t, fs, "aff1", "r1", "basic", true)
	seedRecruit(t, fs, "aff1", "r2", "premium", true)
	seedRecruit(t, fs, "aff1", "r3", "basic", false) // not a member

	runner := New(fs, nil)
	ctx := context.Background()

	if err := runner.CreateMembershipInvoices(ctx); err != nil {
		t.Fatalf("CreateMembershipInvoices: %v", err)
	}
	if got := fs.count(store.KindMembershipInvoices); got != 2 {
		t.Fatalf("Expected 2 invoices, got %d", got)
	}

	// Second run finds the invoices already in place
	if err := runner.CreateMembershipInvoices(ctx); err != nil {
		t.Fatalf("CreateMembershipInvoices rerun: %v", err)
	}
	if got := fs.count(store.KindMembershipInvoices); got != 2 {
		t.Fatalf("Expected 2 invoices after rerun, got %d", got)
	}

	records, _ := fs.List(ctx, store.KindMembershipInvoices)
	for _, rec := range records {
		var invoice models.MembershipInvoice
		if err := rec.Decode(&invoice); err != nil {
			t.Fatalf("Decode invoice: %v", err)
		}
		if invoice.PlanID == "basic" && invoice.Total.Amount != 4900 {
			t.Errorf("Expected basic plan fee 4900, got %d", invoice.Total.Amount)
		}
		if invoice.IsPaid {
			t.Error("Expected fresh invoice to be unpaid")
		}
	}
}

func TestDowngradeUnpaidMemberships(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()
	seedRecruit(t, fs, "aff1", "r1", "basic", true)
	seedRecruit(t, fs, "aff1", "r2", "basic", true)

	unpaid, err := models.NewMembershipInvoice(map[string]any{
		"invoice_id":   invoiceKey("aff1", "r1", "2000-01"),
		"affiliate_id": "aff1",
		"referrer_uid": "r1",
		"plan_id":      "basic",
		"period":       "2000-01",
		"total":        models.Amount{Amount: 4900, Currency: "PHP"},
	})
	if err != nil {
		t.Fatalf("NewMembershipInvoice: %v", err)
	}
	if err := fs.Put(ctx, store.KindMembershipInvoices, unpaid.InvoiceID, unpaid); err != nil {
		t.Fatalf("Put invoice: %v", err)
	}

	paid, err := models.NewMembershipInvoice(map[string]any{
		"invoice_id":   invoiceKey("aff1", "r2", "2000-01"),
		"affiliate_id": "aff1",
		"referrer_uid": "r2",
		"plan_id":      "basic",
		"period":       "2000-01",
		"total":        models.Amount{Amount: 4900, Currency: "PHP"},
		"is_paid":      true,
	})
	if err != nil {
		t.Fatalf("NewMembershipInvoice: %v", err)
	}
	if err := fs.Put(ctx, store.KindMembershipInvoices, paid.InvoiceID, paid); err != nil {
		t.Fatalf("Put invoice: %v", err)
	}

	if err := New(fs, nil).DowngradeUnpaidMemberships(ctx); err != nil {
		t.Fatalf("DowngradeUnpaidMemberships: %v", err)
	}

	rec, err := fs.Get(ctx, store.KindRecruits, recruitKey("aff1", "r1"))
	if err != nil {
		t.Fatalf("Get recruit: %v", err)
	}
	var recruit models.Recruit
	if err := rec.Decode(&recruit); err != nil {
		t.Fatalf("Decode recruit: %v", err)
	}
	if recruit.IsMember {
		t.Error("Expected recruit with unpaid invoice to lose membership")
	}

	rec, err = fs.Get(ctx, store.KindRecruits, recruitKey("aff1", "r2"))
	if err != nil {
		t.Fatalf("Get recruit: %v", err)
	}
	if err := rec.Decode(&recruit); err != nil {
		t.Fatalf("Decode recruit: %v", err)
	}
	if !recruit.IsMember {
		t.Error("Expected recruit with paid invoice to keep membership")
	}
}

// flakySettingsStore fails reads of one kind while everything else works
type flakySettingsStore struct {
	*fakeStore
	failKind string
}

func (f *flakySettingsStore) Get(ctx context.Context, kind, key string) (store.Record, error) {
	if kind == f.failKind {
		return store.Record{}, store.ErrTransient
	}
	return f.fakeStore.Get(ctx, kind, key)
}

func TestFinalizePaymentsAbortsWhenSettingsUnreadable(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	settings, err := models.NewAffiliateSettings(map[string]any{"earnings_percent": 10})
	if err != nil {
		t.Fatalf("NewAffiliateSettings: %v", err)
	}
	if err := fs.Put(ctx, store.KindAffiliateSettings, settingsKey, settings); err != nil {
		t.Fatalf("Put settings: %v", err)
	}
	earnings, err := models.NewEarningsRecord(map[string]any{
		"affiliate_id": "aff1",
		"total_earned": models.Amount{Amount: 1000, Currency: "PHP"},
	})
	if err != nil {
		t.Fatalf("NewEarningsRecord: %v", err)
	}
	if err := fs.Put(ctx, store.KindEarnings, "aff1:2026-08-01", earnings); err != nil {
		t.Fatalf("Put earnings: %v", err)
	}

	flaky := &flakySettingsStore{fakeStore: fs, failKind: store.KindAffiliateSettings}
	if err := New(flaky, nil).FinalizeAffiliatePayments(ctx); err == nil {
		t.Fatal("Expected job to abort when the settings read fails")
	}

	// nothing was paid out at a guessed percentage
	if got := fs.count(store.KindEarningsTransactions); got != 0 {
		t.Errorf("Expected no payout transactions, got %d", got)
	}
	if got := fs.count(store.KindTransactionItems); got != 0 {
		t.Errorf("Expected no transaction items, got %d", got)
	}
	rec, err := fs.Get(ctx, store.KindEarnings, "aff1:2026-08-01")
	if err != nil {
		t.Fatalf("Get earnings: %v", err)
	}
	var earned models.EarningsRecord
	if err := rec.Decode(&earned); err != nil {
		t.Fatalf("Decode earnings: %v", err)
	}
	if earned.IsPaid {
		t.Error("Expected earnings record to stay open")
	}
}

func TestFinalizePaymentsDefaultsWithoutSettings(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	affiliate, err := models.NewAffiliate(map[string]any{"affiliate_id": "aff1", "uid": "owner1"})
	if err != nil {
		t.Fatalf("NewAffiliate: %v", err)
	}
	if err := fs.Put(ctx, store.KindAffiliates, affiliate.AffiliateID, affiliate); err != nil {
		t.Fatalf("Put affiliate: %v", err)
	}
	wallet, err := models.NewWallet(map[string]any{
		"uid":             "owner1",
		"available_funds": map[string]any{"amount": 0, "currency": "PHP"},
	})
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	if err := fs.Put(ctx, store.KindWallets, wallet.UID, wallet); err != nil {
		t.Fatalf("Put wallet: %v", err)
	}
	earnings, err := models.NewEarningsRecord(map[string]any{
		"affiliate_id": "aff1",
		"total_earned": models.Amount{Amount: 1000, Currency: "PHP"},
	})
	if err != nil {
		t.Fatalf("NewEarningsRecord: %v", err)
	}
	if err := fs.Put(ctx, store.KindEarnings, "aff1:2026-08-01", earnings); err != nil {
		t.Fatalf("Put earnings: %v", err)
	}

	// no settings record at all pays out in full
	if err := New(fs, nil).FinalizeAffiliatePayments(ctx); err != nil {
		t.Fatalf("FinalizeAffiliatePayments: %v", err)
	}
	rec, err := fs.Get(ctx, store.KindWallets, "owner1")
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if err := rec.Decode(&wallet); err != nil {
		t.Fatalf("Decode wallet: %v", err)
	}
	if wallet.AvailableFunds.Amount != 1000 {
		t.Errorf("Expected full payout of 1000, got %d", wallet.AvailableFunds.Amount)
	}
}

func TestFinalizeAffiliatePayments(t *testing.T) {
	fs := newFakeStore()
	ctx := context.Background()

	settings, err := models.NewAffiliateSettings(map[string]any{"earnings_percent": 50})
	if err != nil {
		t.Fatalf("NewAffiliateSettings: %v", err)
	}
	if err := fs.Put(ctx, store.KindAffiliateSettings, settingsKey, settings); err != nil {
		t.Fatalf("Put settings: %v", err)
	}

	affiliate, err := models.NewAffiliate(map[string]any{"affiliate_id": "aff1", "uid": "owner1"})
	if err != nil {
		t.Fatalf("NewAffiliate: %v", err)
	}
	if err := fs.Put(ctx, store.KindAffiliates, affiliate.AffiliateID, affiliate); err != nil {
		t.Fatalf("Put affiliate: %v", err)
	}

	wallet, err := models.NewWallet(map[string]any{
		"uid":             "owner1",
		"available_funds": map[string]any{"amount": 100, "currency": "PHP"},
	})
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	if err := fs.Put(ctx, store.KindWallets, wallet.UID, wallet); err != nil {
		t.Fatalf("Put wallet: %v", err)
	}

	earnings, err := models.NewEarningsRecord(map[string]any{
		"affiliate_id": "aff1",
		"total_earned": models.Amount{Amount: 1000, Currency: "PHP"},
	})
	if err != nil {
		t.Fatalf("NewEarningsRecord: %v", err)
	}
	if err := fs.Put(ctx, store.KindEarnings, "aff1:2026-08-01", earnings); err != nil {
		t.Fatalf("Put earnings: %v", err)
	}

	if err := New(fs, nil).FinalizeAffiliatePayments(ctx); err != nil {
		t.Fatalf("FinalizeAffiliatePayments: %v", err)
	}

	// 50% of 1000 lands in the wallet
	rec, err := fs.Get(ctx, store.KindWallets, "owner1")
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if err := rec.Decode(&wallet); err != nil {
		t.Fatalf("Decode wallet: %v", err)
	}
	if wallet.AvailableFunds.Amount != 600 {
		t.Errorf("Expected balance 600 after payout, got %d", wallet.AvailableFunds.Amount)
	}

	// earnings record is closed
	rec, err = fs.Get(ctx, store.KindEarnings, "aff1:2026-08-01")
	if err != nil {
		t.Fatalf("Get earnings: %v", err)
	}
	var earned models.EarningsRecord
	if err := rec.Decode(&earned); err != nil {
		t.Fatalf("Decode earnings: %v", err)
	}
	if !earned.IsPaid {
		t.Error("Expected earnings record to be marked paid")
	}

	// one payout transaction referencing one item
	if got := fs.count(store.KindEarningsTransactions); got != 1 {
		t.Fatalf("Expected 1 payout transaction, got %d", got)
	}
	if got := fs.count(store.KindTransactionItems); got != 1 {
		t.Fatalf("Expected 1 transaction item, got %d", got)
	}
	records, _ := fs.List(ctx, store.KindEarningsTransactions)
	var txn models.EarningsTransaction
	if err := records[0].Decode(&txn); err != nil {
		t.Fatalf("Decode transaction: %v", err)
	}
	if txn.TotalEarned.Amount != 500 || len(txn.TransactionIDList) != 1 {
		t.Errorf("Unexpected payout transaction %+v", txn)
	}

	// A second run pays nothing new
	if err := New(fs, nil).FinalizeAffiliatePayments(ctx); err != nil {
		t.Fatalf("FinalizeAffiliatePayments rerun: %v", err)
	}
	rec, err = fs.Get(ctx, store.KindWallets, "owner1")
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if err := rec.Decode(&wallet); err != nil {
		t.Fatalf("Decode wallet: %v", err)
	}
	if wallet.AvailableFunds.Amount != 600 {
		t.Errorf("Expected balance unchanged at 600, got %d", wallet.AvailableFunds.Amount)
	}

	// unknown plan is skipped, not an error
	if err := New(fs, map[string]int64{}).CreateMembershipInvoices(ctx); err != nil {
		t.Fatalf("CreateMembershipInvoices with empty plans: %v", err)
	}
}
