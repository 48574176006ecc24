package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stockdesk/backend/internal/guards"
	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// CreateAffiliateRequest registers a user as an affiliate
type CreateAffiliateRequest struct {
	AffiliateID string `json:"affiliate_id"`
	UID         string `json:"uid" binding:"required"`
}

// CreateRecruitRequest registers a recruit under a referring affiliate
type CreateRecruitRequest struct {
	AffiliateID string `json:"affiliate_id" binding:"required"`
	ReferrerUID string `json:"referrer_uid" binding:"required"`
	PlanID      string `json:"plan_id" binding:"required"`
}

// RecruitMembershipRequest flips a recruit's membership state
type RecruitMembershipRequest struct {
	AffiliateID string `json:"affiliate_id" binding:"required"`
	ReferrerUID string `json:"referrer_uid" binding:"required"`
	PlanID      string `json:"plan_id" binding:"required"`
	IsMember    bool   `json:"is_member"`
}

// CreateEarningsRequest opens an earnings period for an affiliate
type CreateEarningsRequest struct {
	AffiliateID string `json:"affiliate_id" binding:"required"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency" binding:"required"`
}

func recruitKey(affiliateID, referrerUID string) string {
	return affiliateID + ":" + referrerUID
}

// CreateAffiliate handles POST /api/affiliates
func (a *API) CreateAffiliate(c *gin.Context) {
	var req CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	// a user may only register as an affiliate once
	allowed, err := a.guard(store.KindAffiliates, "uid").CanCreate(c.Request.Context(), req.UID)
	if err != nil {
		respondError(c, err, "Unable to verify affiliate data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create affiliate")
		return
	}

	if req.AffiliateID == "" {
		req.AffiliateID = uuid.NewString()
	}
	affiliate, err := models.NewAffiliate(map[string]any{
		"affiliate_id": req.AffiliateID,
		"uid":          req.UID,
	})
	if err != nil {
		respondError(c, err, "Unable to create affiliate")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindAffiliates, affiliate.AffiliateID, affiliate); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondFail(c, "Unable to create affiliate")
			return
		}
		respondError(c, err, "An Error occurred creating Affiliate")
		return
	}
	respondOK(c, "successfully created affiliate", affiliate)
}

// GetAffiliate handles GET /api/affiliates/:affiliateID
func (a *API) GetAffiliate(c *gin.Context) {
	affiliateID := c.Param("affiliateID")
	affiliate, _, err := a.loadAffiliate(c, affiliateID)
	if err != nil {
		respondError(c, err, "Unable to find affiliate")
		return
	}
	respondOK(c, "affiliate found", affiliate)
}

// ListAffiliates handles GET /api/affiliates
func (a *API) ListAffiliates(c *gin.Context) {
	records, err := a.store.List(c.Request.Context(), store.KindAffiliates)
	if err != nil {
		respondError(c, err, "Unable to fetch affiliates")
		return
	}
	affiliates := make([]models.Affiliate, 0, len(records))
	for _, rec := range records {
		var af models.Affiliate
		if err := rec.Decode(&af); err != nil {
			continue
		}
		if af.IsDeleted {
			continue
		}
		affiliates = append(affiliates, af)
	}
	respondOK(c, "affiliates returned", affiliates)
}

// IncrementRecruits handles PUT /api/affiliates/recruits
func (a *API) IncrementRecruits(c *gin.Context) {
	var req struct {
		AffiliateID string `json:"affiliate_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindAffiliates, "affiliate_id").CanUpdate(c.Request.Context(), req.AffiliateID)
	if err != nil {
		respondError(c, err, "Unable to verify affiliate data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to update affiliate")
		return
	}

	affiliate, key, err := a.loadAffiliate(c, req.AffiliateID)
	if err != nil {
		respondError(c, err, "Unable to find affiliate")
		return
	}
	affiliate.TotalRecruits++
	affiliate.LastUpdated = models.Now()
	if err := a.store.Put(c.Request.Context(), store.KindAffiliates, key, affiliate); err != nil {
		respondError(c, err, "An Error occurred updating Affiliate")
		return
	}
	respondOK(c, "successfully updated affiliate", affiliate)
}

// DeleteAffiliate handles DELETE /api/affiliates/:affiliateID (soft delete)
func (a *API) DeleteAffiliate(c *gin.Context) {
	affiliateID := c.Param("affiliateID")

	allowed, err := a.guard(store.KindAffiliates, "affiliate_id").CanUpdate(c.Request.Context(), affiliateID)
	if err != nil {
		respondError(c, err, "Unable to verify affiliate data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to delete affiliate")
		return
	}

	affiliate, key, err := a.loadAffiliate(c, affiliateID)
	if err != nil {
		respondError(c, err, "Unable to find affiliate")
		return
	}
	affiliate.IsDeleted = true
	affiliate.IsActive = false
	affiliate.LastUpdated = models.Now()
	if err := a.store.Put(c.Request.Context(), store.KindAffiliates, key, affiliate); err != nil {
		respondError(c, err, "An Error occurred deleting Affiliate")
		return
	}
	respondOK(c, "successfully deleted affiliate", affiliate)
}

// CreateRecruit handles POST /api/recruits
func (a *API) CreateRecruit(c *gin.Context) {
	var req CreateRecruitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	// recruits can only hang off a registered affiliate
	referrer, err := a.guard(store.KindAffiliates, "affiliate_id").Check(c.Request.Context(), req.AffiliateID)
	if err != nil {
		respondError(c, err, "Unable to verify affiliate data")
		return
	}
	if referrer == guards.Unknown {
		respondFail(c, "Unable to verify record state")
		return
	}
	if referrer != guards.Exists {
		respondFail(c, "referrer is not an affiliate")
		return
	}

	allowed, err := a.guard(store.KindRecruits, "referrer_uid").CanCreate(c.Request.Context(), req.ReferrerUID)
	if err != nil {
		respondError(c, err, "Unable to verify recruit data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create recruit")
		return
	}

	recruit, err := models.NewRecruit(map[string]any{
		"affiliate_id": req.AffiliateID,
		"referrer_uid": req.ReferrerUID,
		"plan_id":      req.PlanID,
	})
	if err != nil {
		respondError(c, err, "Unable to create recruit")
		return
	}
	key := recruitKey(recruit.AffiliateID, recruit.ReferrerUID)
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindRecruits, key, recruit); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondFail(c, "Unable to create recruit")
			return
		}
		respondError(c, err, "An Error occurred creating Recruit")
		return
	}
	respondOK(c, "successfully created recruit", recruit)
}

// SetRecruitMembership handles PUT /api/recruits/membership
func (a *API) SetRecruitMembership(c *gin.Context) {
	var req RecruitMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindRecruits, "affiliate_id").CanUpdate(c.Request.Context(), req.AffiliateID)
	if err != nil {
		respondError(c, err, "Unable to verify recruit data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to update recruit")
		return
	}

	key := recruitKey(req.AffiliateID, req.ReferrerUID)
	rec, err := a.store.Get(c.Request.Context(), store.KindRecruits, key)
	if err != nil {
		respondError(c, err, "Unable to find recruit")
		return
	}
	var recruit models.Recruit
	if err := rec.Decode(&recruit); err != nil {
		respondFail(c, "Unable to read recruit")
		return
	}
	if err := recruit.Apply(map[string]any{
		"affiliate_id": req.AffiliateID,
		"referrer_uid": req.ReferrerUID,
		"plan_id":      req.PlanID,
		"is_member":    req.IsMember,
	}); err != nil {
		respondError(c, err, "Unable to update recruit")
		return
	}
	if err := a.store.Put(c.Request.Context(), store.KindRecruits, key, recruit); err != nil {
		respondError(c, err, "An Error occurred updating Recruit")
		return
	}
	respondOK(c, "successfully updated recruit", recruit)
}

// CreateEarningsRecord handles POST /api/earnings
func (a *API) CreateEarningsRecord(c *gin.Context) {
	var req CreateEarningsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	// only one unclosed earnings period per affiliate
	allowed, err := a.guard(store.KindEarnings, "affiliate_id").CanCreate(c.Request.Context(), req.AffiliateID)
	if err != nil {
		respondError(c, err, "Unable to verify earnings data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create earnings record")
		return
	}

	earnings, err := models.NewEarningsRecord(map[string]any{
		"affiliate_id": req.AffiliateID,
		"total_earned": map[string]any{"amount": req.Amount, "currency": req.Currency},
	})
	if err != nil {
		respondError(c, err, "Unable to create earnings record")
		return
	}
	key := req.AffiliateID + ":" + earnings.StartDate.Format(time.DateOnly)
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindEarnings, key, earnings); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondFail(c, "Unable to create earnings record")
			return
		}
		respondError(c, err, "An Error occurred creating Earnings record")
		return
	}
	respondOK(c, "successfully created earnings record", earnings)
}

func (a *API) loadAffiliate(c *gin.Context, affiliateID string) (*models.Affiliate, string, error) {
	rec, err := a.store.Get(c.Request.Context(), store.KindAffiliates, affiliateID)
	if err != nil {
		return nil, "", err
	}
	var affiliate models.Affiliate
	if err := rec.Decode(&affiliate); err != nil {
		return nil, "", err
	}
	return &affiliate, rec.Key, nil
}
