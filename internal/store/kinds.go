package store

// Record kinds, one per persisted entity collection
const (
	KindAffiliates           = "affiliates"
	KindRecruits             = "recruits"
	KindEarnings             = "earnings"
	KindEarningsTransactions = "earnings_transactions"
	KindTransactionItems     = "transaction_items"
	KindAffiliateSettings    = "affiliate_settings"
	KindMembershipInvoices   = "membership_invoices"
	KindHelpDesk             = "helpdesk"
	KindTickets              = "tickets"
	KindTicketThreads        = "ticket_threads"
	KindStocks               = "stocks"
	KindBrokers              = "brokers"
	KindStockTrades          = "stock_trades"
	KindBuyVolumes           = "buy_volumes"
	KindSellVolumes          = "sell_volumes"
	KindNetVolumes           = "net_volumes"
	KindWallets              = "wallets"
)
