package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/stockdesk/backend/internal/config"
	"github.com/stockdesk/backend/internal/db"
	"github.com/stockdesk/backend/internal/handlers"
	"github.com/stockdesk/backend/internal/jobs"
	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

func modelsSetup(cfg *config.Config) {
	models.SetCurrencies(cfg.Currencies, cfg.DefaultCurrency)
	models.SetUTCOffset(cfg.UTCOffset)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults or environment variables")
	}

	cfg := config.Load()

	// Currency allow-list and timezone used when validating records
	modelsSetup(cfg)

	// Initialize database
	if err := db.InitDB(cfg); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.CloseDB()

	st := store.New(db.DB, cfg.StoreRetries, cfg.StoreTimeout)
	if err := st.EnsureSchema(context.Background()); err != nil {
		log.Fatal("Failed to prepare schema:", err)
	}

	api := handlers.New(st)
	cron := handlers.NewCron(jobs.New(st, nil))

	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// API routes
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/wallets", api.CreateWallet)
		apiGroup.GET("/wallets", api.ListWallets)
		apiGroup.GET("/wallets/balance", api.WalletsByBalance)
		apiGroup.GET("/wallets/:uid", api.GetWallet)
		apiGroup.PUT("/wallets", api.UpdateWallet)
		apiGroup.PUT("/wallets/reset", api.ResetWallet)
		apiGroup.POST("/wallets/transact", api.WalletTransact)

		apiGroup.POST("/affiliates", api.CreateAffiliate)
		apiGroup.GET("/affiliates", api.ListAffiliates)
		apiGroup.GET("/affiliates/:affiliateID", api.GetAffiliate)
		apiGroup.PUT("/affiliates/recruits/increment", api.IncrementRecruits)
		apiGroup.DELETE("/affiliates/:affiliateID", api.DeleteAffiliate)
		apiGroup.POST("/affiliates/recruits", api.CreateRecruit)
		apiGroup.PUT("/affiliates/recruits/membership", api.SetRecruitMembership)
		apiGroup.POST("/affiliates/earnings", api.CreateEarningsRecord)

		apiGroup.GET("/helpdesk", api.GetHelpDesk)
		apiGroup.POST("/helpdesk/tickets", api.CreateTicket)
		apiGroup.GET("/helpdesk/tickets", api.ListTickets)
		apiGroup.GET("/helpdesk/tickets/:ticketID", api.GetTicket)
		apiGroup.PUT("/helpdesk/tickets", api.UpdateTicket)
		apiGroup.PUT("/helpdesk/tickets/assign", api.AssignTicket)
		apiGroup.PUT("/helpdesk/tickets/resolve", api.ResolveTicket)
		apiGroup.POST("/helpdesk/threads", api.AddThreadMessage)
		apiGroup.GET("/helpdesk/threads/:ticketID", api.ListThreadMessages)

		apiGroup.POST("/stocks", api.CreateStock)
		apiGroup.GET("/stocks", api.ListStocks)
		apiGroup.GET("/stocks/:stockID", api.GetStock)
		apiGroup.POST("/brokers", api.CreateBroker)
		apiGroup.GET("/brokers", api.ListBrokers)
		apiGroup.POST("/trades", api.CreateTradeRecord)
		apiGroup.GET("/trades", api.ListTradeRecords)
		apiGroup.POST("/volumes/buy", api.CreateBuyVolume)
		apiGroup.POST("/volumes/sell", api.CreateSellVolume)
		apiGroup.POST("/volumes/net", api.CreateNetVolume)
		apiGroup.GET("/volumes/:side/:stockID", api.ListVolumes)
	}

	// Cron endpoints, triggered by the scheduler over plain GET
	cronGroup := router.Group("/cron")
	{
		cronGroup.GET("/create-memberships-invoices", cron.CreateMembershipInvoices)
		cronGroup.GET("/downgrade-memberships", cron.DowngradeMemberships)
		cronGroup.GET("/finalize-affiliate-payment", cron.FinalizeAffiliatePayment)
	}

	// WebSocket endpoint
	router.GET("/ws/volumes", api.VolumeFeed)

	// Health check
	router.GET("/health", api.Health)

	log.Println("🚀 Server starting on http://localhost:" + cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
