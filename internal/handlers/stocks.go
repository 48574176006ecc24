package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// CreateTradeRecordRequest links an existing stock and broker on an exchange
type CreateTradeRecordRequest struct {
	ExchangeID string `json:"exchange_id" binding:"required"`
	StockID    string `json:"stock_id" binding:"required"`
	BrokerID   string `json:"broker_id" binding:"required"`
}

// CreateStock handles POST /api/stocks
func (a *API) CreateStock(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	if _, ok := body["stock_id"]; !ok {
		body["stock_id"] = uuid.NewString()
	}

	stock, err := models.NewStock(body)
	if err != nil {
		respondError(c, err, "Unable to create stock")
		return
	}
	allowed, err := a.guard(store.KindStocks, "stock_id").CanCreate(c.Request.Context(), stock.StockID)
	if err != nil {
		respondError(c, err, "Unable to verify stock data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create stock")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindStocks, stock.StockID, stock); err != nil {
		respondError(c, err, "An Error occurred creating Stock")
		return
	}
	respondOK(c, "successfully created stock", stock)
}

// GetStock handles GET /api/stocks/:stockID
func (a *API) GetStock(c *gin.Context) {
	rec, err := a.store.Get(c.Request.Context(), store.KindStocks, c.Param("stockID"))
	if err != nil {
		respondError(c, err, "Unable to find stock")
		return
	}
	var stock models.Stock
	if err := rec.Decode(&stock); err != nil {
		respondFail(c, "Unable to find stock")
		return
	}
	respondOK(c, "stock found", stock)
}

// ListStocks handles GET /api/stocks
func (a *API) ListStocks(c *gin.Context) {
	records, err := a.store.List(c.Request.Context(), store.KindStocks)
	if err != nil {
		respondError(c, err, "Unable to fetch stocks")
		return
	}
	stocks := make([]models.Stock, 0, len(records))
	for _, rec := range records {
		var s models.Stock
		if err := rec.Decode(&s); err != nil {
			continue
		}
		stocks = append(stocks, s)
	}
	respondOK(c, "stocks returned", stocks)
}

// CreateBroker handles POST /api/brokers
func (a *API) CreateBroker(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	if _, ok := body["broker_id"]; !ok {
		body["broker_id"] = uuid.NewString()
	}

	broker, err := models.NewBroker(body)
	if err != nil {
		respondError(c, err, "Unable to create broker")
		return
	}
	allowed, err := a.guard(store.KindBrokers, "broker_id").CanCreate(c.Request.Context(), broker.BrokerID)
	if err != nil {
		respondError(c, err, "Unable to verify broker data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to create broker")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindBrokers, broker.BrokerID, broker); err != nil {
		respondError(c, err, "An Error occurred creating Broker")
		return
	}
	respondOK(c, "successfully created broker", broker)
}

// ListBrokers handles GET /api/brokers
func (a *API) ListBrokers(c *gin.Context) {
	records, err := a.store.List(c.Request.Context(), store.KindBrokers)
	if err != nil {
		respondError(c, err, "Unable to fetch brokers")
		return
	}
	brokers := make([]models.Broker, 0, len(records))
	for _, rec := range records {
		var b models.Broker
		if err := rec.Decode(&b); err != nil {
			continue
		}
		brokers = append(brokers, b)
	}
	respondOK(c, "brokers returned", brokers)
}

// CreateTradeRecord handles POST /api/trades; the stock and broker must
// already exist, their current state is copied into the record
func (a *API) CreateTradeRecord(c *gin.Context) {
	var req CreateTradeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	stockRec, err := a.store.Get(c.Request.Context(), store.KindStocks, req.StockID)
	if err != nil {
		respondError(c, err, "Unable to find stock")
		return
	}
	var stock models.Stock
	if err := stockRec.Decode(&stock); err != nil {
		respondFail(c, "Unable to find stock")
		return
	}

	brokerRec, err := a.store.Get(c.Request.Context(), store.KindBrokers, req.BrokerID)
	if err != nil {
		respondError(c, err, "Unable to find broker")
		return
	}
	var broker models.Broker
	if err := brokerRec.Decode(&broker); err != nil {
		respondFail(c, "Unable to find broker")
		return
	}

	record, err := models.NewStockTradeRecord(req.ExchangeID, uuid.NewString(), &stock, &broker)
	if err != nil {
		respondError(c, err, "Unable to create trade record")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindStockTrades, record.TransactionID, record); err != nil {
		respondError(c, err, "An Error occurred creating Trade record")
		return
	}
	respondOK(c, "successfully created trade record", record)
}

// ListTradeRecords handles GET /api/trades, optionally filtered by exchange
func (a *API) ListTradeRecords(c *gin.Context) {
	var (
		records []store.Record
		err     error
	)
	if exchangeID := c.Query("exchange_id"); exchangeID != "" {
		records, err = a.store.Query(c.Request.Context(), store.KindStockTrades, "exchange_id", exchangeID)
	} else {
		records, err = a.store.List(c.Request.Context(), store.KindStockTrades)
	}
	if err != nil {
		respondError(c, err, "Unable to fetch trade records")
		return
	}
	trades := make([]models.StockTradeRecord, 0, len(records))
	for _, rec := range records {
		var t models.StockTradeRecord
		if err := rec.Decode(&t); err != nil {
			continue
		}
		trades = append(trades, t)
	}
	respondOK(c, "trade records returned", trades)
}

// CreateBuyVolume handles POST /api/volumes/buy
func (a *API) CreateBuyVolume(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	if _, ok := body["transaction_id"]; !ok {
		body["transaction_id"] = uuid.NewString()
	}

	record, err := models.NewBuyVolumeRecord(body)
	if err != nil {
		respondError(c, err, "Unable to create buy volume")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindBuyVolumes, record.TransactionID, record); err != nil {
		respondError(c, err, "An Error occurred creating Buy volume")
		return
	}
	respondOK(c, "successfully created buy volume", record)
}

// CreateSellVolume handles POST /api/volumes/sell
func (a *API) CreateSellVolume(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	if _, ok := body["transaction_id"]; !ok {
		body["transaction_id"] = uuid.NewString()
	}

	record, err := models.NewSellVolumeRecord(body)
	if err != nil {
		respondError(c, err, "Unable to create sell volume")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindSellVolumes, record.TransactionID, record); err != nil {
		respondError(c, err, "An Error occurred creating Sell volume")
		return
	}
	respondOK(c, "successfully created sell volume", record)
}

// CreateNetVolume handles POST /api/volumes/net
func (a *API) CreateNetVolume(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	if _, ok := body["transaction_id"]; !ok {
		body["transaction_id"] = uuid.NewString()
	}

	record, err := models.NewNetVolumeRecord(body)
	if err != nil {
		respondError(c, err, "Unable to create net volume")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindNetVolumes, record.TransactionID, record); err != nil {
		respondError(c, err, "An Error occurred creating Net volume")
		return
	}
	respondOK(c, "successfully created net volume", record)
}

// ListVolumes handles GET /api/volumes/:side/:stockID
func (a *API) ListVolumes(c *gin.Context) {
	var kind string
	switch c.Param("side") {
	case "buy":
		kind = store.KindBuyVolumes
	case "sell":
		kind = store.KindSellVolumes
	case "net":
		kind = store.KindNetVolumes
	default:
		respondFail(c, "Unknown volume side")
		return
	}
	records, err := a.store.Query(c.Request.Context(), kind, "stock_id", c.Param("stockID"))
	if err != nil {
		respondError(c, err, "Unable to fetch volumes")
		return
	}
	docs := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		var doc map[string]any
		if err := rec.Decode(&doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	respondOK(c, "volumes returned", docs)
}
