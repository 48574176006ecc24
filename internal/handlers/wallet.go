package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// CreateWalletRequest - what client sends to open a wallet
type CreateWalletRequest struct {
	UID           string `json:"uid" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	PaypalAddress string `json:"paypal_address"`
}

// UpdateWalletRequest - full field set, no partial updates
type UpdateWalletRequest struct {
	UID            string `json:"uid" binding:"required"`
	AvailableFunds int64  `json:"available_funds"`
	Currency       string `json:"currency" binding:"required"`
	PaypalAddress  string `json:"paypal_address"`
}

// ResetWalletRequest zeroes the funds in the given currency
type ResetWalletRequest struct {
	UID      string `json:"uid" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

// TransactRequest composes a credit or debit onto the wallet
type TransactRequest struct {
	UID string `json:"uid" binding:"required"`
	Add *int64 `json:"add"`
	Sub *int64 `json:"sub"`
}

// CreateWallet handles POST /api/wallet
func (a *API) CreateWallet(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindWallets, "uid").CanCreate(c.Request.Context(), req.UID)
	if err != nil {
		respondError(c, err, "Unable to verify wallet data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create wallet")
		return
	}

	wallet, err := models.NewWallet(map[string]any{
		"uid":             req.UID,
		"available_funds": map[string]any{"amount": 0, "currency": req.Currency},
		"paypal_address":  req.PaypalAddress,
	})
	if err != nil {
		respondError(c, err, "Unable to create wallet")
		return
	}

	// conditional write backstops the advisory guard
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindWallets, wallet.UID, wallet); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondFail(c, "Unable to create wallet")
			return
		}
		respondError(c, err, "An Error occurred creating Wallet")
		return
	}
	respondOK(c, "successfully created wallet", wallet)
}

// GetWallet handles GET /api/wallet/:uid
func (a *API) GetWallet(c *gin.Context) {
	uid := c.Param("uid")
	if uid == "" {
		respondFail(c, "uid cannot be None")
		return
	}
	wallet, _, err := a.loadWallet(c, uid)
	if err != nil {
		respondError(c, err, "Unable to find wallet")
		return
	}
	respondOK(c, "wallet found", wallet)
}

// UpdateWallet handles PUT /api/wallet
func (a *API) UpdateWallet(c *gin.Context) {
	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindWallets, "uid").CanUpdate(c.Request.Context(), req.UID)
	if err != nil {
		respondError(c, err, "Unable to verify wallet data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to update wallet")
		return
	}

	wallet, key, err := a.loadWallet(c, req.UID)
	if err != nil {
		respondError(c, err, "Unable to find wallet")
		return
	}
	if err := wallet.Apply(map[string]any{
		"uid":             req.UID,
		"available_funds": map[string]any{"amount": req.AvailableFunds, "currency": req.Currency},
		"paypal_address":  req.PaypalAddress,
	}); err != nil {
		respondError(c, err, "Unable to update wallet")
		return
	}
	if err := a.store.Put(c.Request.Context(), store.KindWallets, key, wallet); err != nil {
		respondError(c, err, "An Error occurred updating Wallet")
		return
	}
	respondOK(c, "successfully updated wallet", wallet)
}

// ResetWallet handles PUT /api/wallet/reset
func (a *API) ResetWallet(c *gin.Context) {
	var req ResetWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindWallets, "uid").CanReset(c.Request.Context(), req.UID)
	if err != nil {
		respondError(c, err, "Unable to verify wallet data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to reset wallet")
		return
	}

	wallet, key, err := a.loadWallet(c, req.UID)
	if err != nil {
		respondError(c, err, "Unable to find wallet")
		return
	}
	funds, err := models.NewAmount("available_funds", map[string]any{"amount": 0, "currency": req.Currency})
	if err != nil {
		respondError(c, err, "Unable to reset wallet")
		return
	}
	wallet.AvailableFunds = funds
	if err := a.store.Put(c.Request.Context(), store.KindWallets, key, wallet); err != nil {
		respondError(c, err, "An Error occurred resetting Wallet")
		return
	}
	respondOK(c, "wallet is reset", wallet)
}

// ListWallets handles GET /api/wallet
func (a *API) ListWallets(c *gin.Context) {
	records, err := a.store.List(c.Request.Context(), store.KindWallets)
	if err != nil {
		respondError(c, err, "Unable to fetch wallets")
		return
	}
	wallets := make([]models.Wallet, 0, len(records))
	for _, rec := range records {
		var w models.Wallet
		if err := rec.Decode(&w); err != nil {
			continue
		}
		wallets = append(wallets, w)
	}
	respondOK(c, "wallets returned", wallets)
}

// WalletsByBalance handles GET /api/wallet/range?lower=&upper=
func (a *API) WalletsByBalance(c *gin.Context) {
	lower, err := strconv.ParseInt(c.Query("lower"), 10, 64)
	if err != nil {
		respondFail(c, "lower bound is required")
		return
	}
	upper, err := strconv.ParseInt(c.Query("upper"), 10, 64)
	if err != nil {
		respondFail(c, "upper bound is required")
		return
	}
	records, err := a.store.QueryRange(c.Request.Context(), store.KindWallets,
		[]string{"available_funds", "amount"}, lower, upper)
	if err != nil {
		respondError(c, err, "Unable to fetch wallets")
		return
	}
	wallets := make([]models.Wallet, 0, len(records))
	for _, rec := range records {
		var w models.Wallet
		if err := rec.Decode(&w); err != nil {
			continue
		}
		wallets = append(wallets, w)
	}
	respondOK(c, "wallets returned", wallets)
}

// WalletTransact handles POST /api/wallet/transact
func (a *API) WalletTransact(c *gin.Context) {
	var req TransactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	// read-modify-write on the funds, serialized per uid
	a.locks.Lock(req.UID)
	defer a.locks.Unlock(req.UID)

	allowed, err := a.guard(store.KindWallets, "uid").CanUpdate(c.Request.Context(), req.UID)
	if err != nil {
		respondError(c, err, "Unable to verify wallet data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to find wallet")
		return
	}

	wallet, key, err := a.loadWallet(c, req.UID)
	if err != nil {
		respondError(c, err, "Unable to find wallet")
		return
	}
	if req.Add != nil {
		if err := wallet.Credit(*req.Add); err != nil {
			respondError(c, err, "Unable to create transaction")
			return
		}
	}
	if req.Sub != nil {
		if err := wallet.Debit(*req.Sub); err != nil {
			respondError(c, err, "Unable to create transaction")
			return
		}
	}
	if err := a.store.Put(c.Request.Context(), store.KindWallets, key, wallet); err != nil {
		respondError(c, err, "General error updating database")
		return
	}
	respondOK(c, "Successfully created transaction", wallet)
}

// Health handles GET /health
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (a *API) loadWallet(c *gin.Context, uid string) (*models.Wallet, string, error) {
	rec, err := a.store.Get(c.Request.Context(), store.KindWallets, uid)
	if err != nil {
		return nil, "", err
	}
	var wallet models.Wallet
	if err := rec.Decode(&wallet); err != nil {
		return nil, "", err
	}
	return &wallet, rec.Key, nil
}
