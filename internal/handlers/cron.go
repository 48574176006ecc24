package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobRunner is the slice of the jobs package the cron views trigger
type JobRunner interface {
	CreateMembershipInvoices(ctx context.Context) error
	DowngradeUnpaidMemberships(ctx context.Context) error
	FinalizeAffiliatePayments(ctx context.Context) error
}

// Cron exposes the scheduled jobs as plain GET endpoints; the scheduler
// only checks the status code, so the body is a bare OK
type Cron struct {
	runner JobRunner
}

// NewCron creates the cron surface around a job runner
func NewCron(runner JobRunner) *Cron {
	return &Cron{runner: runner}
}

func (cr *Cron) run(c *gin.Context, name string, job func(ctx context.Context) error) {
	if err := job(c.Request.Context()); err != nil {
		log.Printf("❌ Cron job %s failed: %v", name, err)
		c.String(http.StatusInternalServerError, "FAILED")
		return
	}
	c.String(http.StatusOK, "OK")
}

// CreateMembershipInvoices handles GET /cron/create-memberships-invoices
func (cr *Cron) CreateMembershipInvoices(c *gin.Context) {
	cr.run(c, "create-memberships-invoices", cr.runner.CreateMembershipInvoices)
}

// DowngradeMemberships handles GET /cron/downgrade-memberships
func (cr *Cron) DowngradeMemberships(c *gin.Context) {
	cr.run(c, "downgrade-memberships", cr.runner.DowngradeUnpaidMemberships)
}

// FinalizeAffiliatePayment handles GET /cron/finalize-affiliate-payment
func (cr *Cron) FinalizeAffiliatePayment(c *gin.Context) {
	cr.run(c, "finalize-affiliate-payment", cr.runner.FinalizeAffiliatePayments)
}
