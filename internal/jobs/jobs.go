package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// Datastore is the slice of the store the jobs need
type Datastore interface {
	Get(ctx context.Context, kind, key string) (store.Record, error)
	List(ctx context.Context, kind string) ([]store.Record, error)
	Put(ctx context.Context, kind, key string, doc any) error
	PutIfAbsent(ctx context.Context, kind, key string, doc any) error
}

// settingsKey is the singleton affiliate settings record
const settingsKey = "main"

// Runner executes the scheduled job bodies. Plan fees are the monthly
// membership charge per plan id, in minor currency units.
type Runner struct {
	store    Datastore
	planFees map[string]int64
}

// New creates a job runner; nil planFees falls back to the default plans
func New(st Datastore, planFees map[string]int64) *Runner {
	if planFees == nil {
		planFees = map[string]int64{
			"basic":   4900,
			"premium": 9900,
		}
	}
	return &Runner{store: st, planFees: planFees}
}

func invoiceKey(affiliateID, referrerUID, period string) string {
	return affiliateID + ":" + referrerUID + ":" + period
}

func recruitKey(affiliateID, referrerUID string) string {
	return affiliateID + ":" + referrerUID
}

// CreateMembershipInvoices raises one invoice per paying recruit for the
// current billing period. Re-runs are harmless: the invoice key is the
// recruit plus the period, so an existing invoice is left alone.
func (r *Runner) CreateMembershipInvoices(ctx context.Context) error {
	period := models.Now().Format("2006-01")

	records, err := r.store.List(ctx, store.KindRecruits)
	if err != nil {
		return err
	}
	created := 0
	for _, rec := range records {
		var recruit models.Recruit
		if err := rec.Decode(&recruit); err != nil {
			continue
		}
		if !recruit.IsMember || !recruit.IsActive || recruit.IsDeleted {
			continue
		}
		fee, ok := r.planFees[recruit.PlanID]
		if !ok {
			log.Printf("⚠️ Unknown plan %s for recruit %s, skipping invoice", recruit.PlanID, recruit.ReferrerUID)
			continue
		}

		invoice, err := models.NewMembershipInvoice(map[string]any{
			"invoice_id":   invoiceKey(recruit.AffiliateID, recruit.ReferrerUID, period),
			"affiliate_id": recruit.AffiliateID,
			"referrer_uid": recruit.ReferrerUID,
			"plan_id":      recruit.PlanID,
			"period":       period,
			"total":        models.Amount{Amount: fee, Currency: models.DefaultCurrency()},
		})
		if err != nil {
			return err
		}
		err = r.store.PutIfAbsent(ctx, store.KindMembershipInvoices, invoice.InvoiceID, invoice)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	log.Printf("✅ Created %d membership invoices for period %s", created, period)
	return nil
}

// DowngradeUnpaidMemberships revokes membership on recruits whose
// invoice from a past period is still unpaid
func (r *Runner) DowngradeUnpaidMemberships(ctx context.Context) error {
	period := models.Now().Format("2006-01")

	records, err := r.store.List(ctx, store.KindMembershipInvoices)
	if err != nil {
		return err
	}
	downgraded := 0
	for _, rec := range records {
		var invoice models.MembershipInvoice
		if err := rec.Decode(&invoice); err != nil {
			continue
		}
		if invoice.IsPaid || invoice.Period >= period {
			continue
		}

		key := recruitKey(invoice.AffiliateID, invoice.ReferrerUID)
		recruitRec, err := r.store.Get(ctx, store.KindRecruits, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		var recruit models.Recruit
		if err := recruitRec.Decode(&recruit); err != nil {
			continue
		}
		if !recruit.IsMember {
			continue
		}
		recruit.IsMember = false
		recruit.DatetimeUpdated = models.Now()
		if err := r.store.Put(ctx, store.KindRecruits, key, &recruit); err != nil {
			return err
		}
		downgraded++
	}
	log.Printf("✅ Downgraded %d unpaid memberships", downgraded)
	return nil
}

// FinalizeAffiliatePayments pays the configured share of every open
// earnings record into the owning affiliate's wallet, leaving one
// transaction item per record and one payout transaction per affiliate
func (r *Runner) FinalizeAffiliatePayments(ctx context.Context) error {
	percent, err := r.earningsPercent(ctx)
	if err != nil {
		return err
	}

	records, err := r.store.List(ctx, store.KindEarnings)
	if err != nil {
		return err
	}

	type pending struct {
		total    int64
		currency string
		itemIDs  []string
		earnings []store.Record
	}
	perAffiliate := make(map[string]*pending)

	for _, rec := range records {
		var earned models.EarningsRecord
		if err := rec.Decode(&earned); err != nil {
			continue
		}
		if earned.IsPaid || earned.OnHold || earned.TotalEarned.Amount <= 0 {
			continue
		}
		payout := decimal.NewFromInt(earned.TotalEarned.Amount).
			Mul(decimal.NewFromInt(percent)).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()

		item, err := models.NewTransactionItem(map[string]any{
			"transaction_id": uuid.NewString(),
			"amount":         models.Amount{Amount: payout, Currency: earned.TotalEarned.Currency},
		})
		if err != nil {
			return err
		}
		if err := r.store.Put(ctx, store.KindTransactionItems, item.TransactionID, item); err != nil {
			return err
		}

		p := perAffiliate[earned.AffiliateID]
		if p == nil {
			p = &pending{currency: earned.TotalEarned.Currency}
			perAffiliate[earned.AffiliateID] = p
		}
		p.total += payout
		p.itemIDs = append(p.itemIDs, item.TransactionID)
		p.earnings = append(p.earnings, rec)
	}

	day := models.Now().Format(time.DateOnly)
	paid := 0
	for affiliateID, p := range perAffiliate {
		txn, err := models.NewEarningsTransaction(map[string]any{
			"affiliate_id":        affiliateID,
			"total_earned":        models.Amount{Amount: p.total, Currency: p.currency},
			"transaction_id_list": p.itemIDs,
		})
		if err != nil {
			return err
		}
		if err := r.store.Put(ctx, store.KindEarningsTransactions, affiliateID+":"+day, txn); err != nil {
			return err
		}

		if err := r.creditWallet(ctx, affiliateID, p.total); err != nil {
			return err
		}

		for _, rec := range p.earnings {
			var earned models.EarningsRecord
			if err := rec.Decode(&earned); err != nil {
				continue
			}
			earned.IsPaid = true
			earned.LastUpdated = models.Now()
			if err := r.store.Put(ctx, store.KindEarnings, rec.Key, &earned); err != nil {
				return err
			}
		}
		paid++
	}
	log.Printf("✅ Finalized payments for %d affiliates at %d%%", paid, percent)
	return nil
}

// earningsPercent reads the payout share from the settings singleton.
// Only a genuinely absent record falls back to paying out in full; a
// failed read aborts the job so payout math never runs on unknown state.
func (r *Runner) earningsPercent(ctx context.Context) (int64, error) {
	rec, err := r.store.Get(ctx, store.KindAffiliateSettings, settingsKey)
	if errors.Is(err, store.ErrNotFound) {
		return 100, nil
	}
	if err != nil {
		return 0, err
	}
	var settings models.AffiliateSettings
	if err := rec.Decode(&settings); err != nil {
		return 0, err
	}
	return settings.EarningsPercent, nil
}

// creditWallet moves a payout into the wallet of the affiliate's user.
// A missing wallet is logged and skipped, the payout stays recorded on
// the transaction.
func (r *Runner) creditWallet(ctx context.Context, affiliateID string, amount int64) error {
	affRec, err := r.store.Get(ctx, store.KindAffiliates, affiliateID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ No affiliate record for %s, payout not credited", affiliateID)
		return nil
	}
	if err != nil {
		return err
	}
	var affiliate models.Affiliate
	if err := affRec.Decode(&affiliate); err != nil {
		return nil
	}

	walletRec, err := r.store.Get(ctx, store.KindWallets, affiliate.UID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ No wallet for user %s, payout not credited", affiliate.UID)
		return nil
	}
	if err != nil {
		return err
	}
	var wallet models.Wallet
	if err := walletRec.Decode(&wallet); err != nil {
		return nil
	}
	if err := wallet.Credit(amount); err != nil {
		return err
	}
	return r.store.Put(ctx, store.KindWallets, wallet.UID, &wallet)
}
