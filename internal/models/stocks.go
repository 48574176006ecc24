package models

import (
	"time"

	"github.com/stockdesk/backend/internal/validate"
)

// Stock identifies a listed stock; stored on its own and embedded in
// trade records as an owned copy
type Stock struct {
	StockID   string `json:"stock_id"`
	StockCode string `json:"stock_code"`
	StockName string `json:"stock_name"`
	Symbol    string `json:"symbol"`
}

// NewStock constructs a validated stock; code and symbol are trimmed,
// the name is normalized to lowercase
func NewStock(data map[string]any) (*Stock, error) {
	stockID, err := validate.ID("stock_id", data["stock_id"])
	if err != nil {
		return nil, err
	}
	stockCode, err := validate.TrimmedString("stock_code", data["stock_code"])
	if err != nil {
		return nil, err
	}
	stockName, err := validate.LowerName("stock_name", data["stock_name"])
	if err != nil {
		return nil, err
	}
	symbol, err := validate.TrimmedString("symbol", data["symbol"])
	if err != nil {
		return nil, err
	}
	return &Stock{
		StockID:   stockID,
		StockCode: stockCode,
		StockName: stockName,
		Symbol:    symbol,
	}, nil
}

// Equal compares stocks by natural key only
func (s *Stock) Equal(other *Stock) bool {
	if other == nil {
		return false
	}
	return s.StockID == other.StockID && s.StockCode == other.StockCode && s.Symbol == other.Symbol
}

// Broker identifies a trading broker
type Broker struct {
	BrokerID   string `json:"broker_id"`
	BrokerCode string `json:"broker_code"`
	BrokerName string `json:"broker_name"`
}

// NewBroker constructs a validated broker; the name is normalized to
// lowercase
func NewBroker(data map[string]any) (*Broker, error) {
	brokerID, err := validate.ID("broker_id", data["broker_id"])
	if err != nil {
		return nil, err
	}
	brokerCode, err := validate.TrimmedString("broker_code", data["broker_code"])
	if err != nil {
		return nil, err
	}
	brokerName, err := validate.LowerName("broker_name", data["broker_name"])
	if err != nil {
		return nil, err
	}
	return &Broker{
		BrokerID:   brokerID,
		BrokerCode: brokerCode,
		BrokerName: brokerName,
	}, nil
}

// Equal compares brokers by natural key only
func (b *Broker) Equal(other *Broker) bool {
	if other == nil {
		return false
	}
	return b.BrokerID == other.BrokerID && b.BrokerCode == other.BrokerCode
}

// StockTradeRecord joins a stock and a broker on an exchange; the
// embedded stock and broker are validated owned copies
type StockTradeRecord struct {
	ExchangeID    string `json:"exchange_id"`
	TransactionID string `json:"transaction_id"`
	Stock         Stock  `json:"stock"`
	Broker        Broker `json:"broker"`
}

// NewStockTradeRecord constructs a validated trade record from already
// loaded stock and broker instances
func NewStockTradeRecord(exchangeID, transactionID string, stock *Stock, broker *Broker) (*StockTradeRecord, error) {
	exID, err := validate.ID("exchange_id", exchangeID)
	if err != nil {
		return nil, err
	}
	txID, err := validate.ID("transaction_id", transactionID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, &validate.FieldError{Field: "stock", Kind: validate.TypeMismatch, Reason: "needs to be an instance of Stock"}
	}
	if broker == nil {
		return nil, &validate.FieldError{Field: "broker", Kind: validate.TypeMismatch, Reason: "needs to be an instance of Broker"}
	}
	return &StockTradeRecord{
		ExchangeID:    exID,
		TransactionID: txID,
		Stock:         *stock,
		Broker:        *broker,
	}, nil
}

// Equal compares trade records by transaction id only
func (r *StockTradeRecord) Equal(other *StockTradeRecord) bool {
	if other == nil {
		return false
	}
	return r.TransactionID == other.TransactionID
}

// BuyVolumeRecord holds a day of buy side volumes for one stock
type BuyVolumeRecord struct {
	TransactionID       string    `json:"transaction_id"`
	StockID             string    `json:"stock_id"`
	Date                time.Time `json:"date"`
	Currency            string    `json:"currency"`
	BuyVolume           int64     `json:"buy_volume"`
	BuyValue            int64     `json:"buy_value"`
	BuyAvePrice         int64     `json:"buy_ave_price"`
	BuyMarketValPercent int64     `json:"buy_market_val_percent"`
	BuyTradeCount       int64     `json:"buy_trade_count"`
}

// NewBuyVolumeRecord constructs a validated buy volume record; the date
// is required and immutable once set
func NewBuyVolumeRecord(data map[string]any) (*BuyVolumeRecord, error) {
	transactionID, err := validate.ID("transaction_id", data["transaction_id"])
	if err != nil {
		return nil, err
	}
	stockID, err := validate.ID("stock_id", data["stock_id"])
	if err != nil {
		return nil, err
	}
	date, err := validate.DateValue("date", data["date"])
	if err != nil {
		return nil, err
	}
	currency, err := optCurrency(data, "currency")
	if err != nil {
		return nil, err
	}
	buyVolume, err := optInt(data, "buy_volume", 0)
	if err != nil {
		return nil, err
	}
	buyValue, err := optInt(data, "buy_value", 0)
	if err != nil {
		return nil, err
	}
	buyAvePrice, err := optInt(data, "buy_ave_price", 0)
	if err != nil {
		return nil, err
	}
	buyMarketValPercent, err := percentField(data, "buy_market_val_percent")
	if err != nil {
		return nil, err
	}
	buyTradeCount, err := optInt(data, "buy_trade_count", 0)
	if err != nil {
		return nil, err
	}
	return &BuyVolumeRecord{
		TransactionID:       transactionID,
		StockID:             stockID,
		Date:                date.In(tz),
		Currency:            currency,
		BuyVolume:           buyVolume,
		BuyValue:            buyValue,
		BuyAvePrice:         buyAvePrice,
		BuyMarketValPercent: buyMarketValPercent,
		BuyTradeCount:       buyTradeCount,
	}, nil
}

// Apply reassigns the mutable fields, keeping the original date
func (r *BuyVolumeRecord) Apply(data map[string]any) error {
	next, err := NewBuyVolumeRecord(data)
	if err != nil {
		return err
	}
	next.Date = r.Date
	*r = *next
	return nil
}

// Equal compares buy volume records by natural key only
func (r *BuyVolumeRecord) Equal(other *BuyVolumeRecord) bool {
	if other == nil {
		return false
	}
	return r.TransactionID == other.TransactionID && r.StockID == other.StockID && sameDay(r.Date, other.Date)
}

// SellVolumeRecord holds a day of sell side volumes for one stock
type SellVolumeRecord struct {
	TransactionID        string    `json:"transaction_id"`
	StockID              string    `json:"stock_id"`
	Date                 time.Time `json:"date"`
	Currency             string    `json:"currency"`
	SellVolume           int64     `json:"sell_volume"`
	SellValue            int64     `json:"sell_value"`
	SellAvePrice         int64     `json:"sell_ave_price"`
	SellMarketValPercent int64     `json:"sell_market_val_percent"`
	SellTradeCount       int64     `json:"sell_trade_count"`
}

// NewSellVolumeRecord constructs a validated sell volume record
func NewSellVolumeRecord(data map[string]any) (*SellVolumeRecord, error) {
	transactionID, err := validate.ID("transaction_id", data["transaction_id"])
	if err != nil {
		return nil, err
	}
	stockID, err := validate.ID("stock_id", data["stock_id"])
	if err != nil {
		return nil, err
	}
	date, err := validate.DateValue("date", data["date"])
	if err != nil {
		return nil, err
	}
	currency, err := optCurrency(data, "currency")
	if err != nil {
		return nil, err
	}
	sellVolume, err := optInt(data, "sell_volume", 0)
	if err != nil {
		return nil, err
	}
	sellValue, err := optInt(data, "sell_value", 0)
	if err != nil {
		return nil, err
	}
	sellAvePrice, err := optInt(data, "sell_ave_price", 0)
	if err != nil {
		return nil, err
	}
	sellMarketValPercent, err := percentField(data, "sell_market_val_percent")
	if err != nil {
		return nil, err
	}
	sellTradeCount, err := optInt(data, "sell_trade_count", 0)
	if err != nil {
		return nil, err
	}
	return &SellVolumeRecord{
		TransactionID:        transactionID,
		StockID:              stockID,
		Date:                 date.In(tz),
		Currency:             currency,
		SellVolume:           sellVolume,
		SellValue:            sellValue,
		SellAvePrice:         sellAvePrice,
		SellMarketValPercent: sellMarketValPercent,
		SellTradeCount:       sellTradeCount,
	}, nil
}

// Apply reassigns the mutable fields, keeping the original date
func (r *SellVolumeRecord) Apply(data map[string]any) error {
	next, err := NewSellVolumeRecord(data)
	if err != nil {
		return err
	}
	next.Date = r.Date
	*r = *next
	return nil
}

// Equal compares sell volume records by natural key only
func (r *SellVolumeRecord) Equal(other *SellVolumeRecord) bool {
	if other == nil {
		return false
	}
	return r.TransactionID == other.TransactionID && r.StockID == other.StockID && sameDay(r.Date, other.Date)
}

// NetVolumeRecord holds a day of net volumes for one stock
type NetVolumeRecord struct {
	TransactionID string    `json:"transaction_id"`
	StockID       string    `json:"stock_id"`
	Date          time.Time `json:"date"`
	Currency      string    `json:"currency"`
	NetVolume     int64     `json:"net_volume"`
	NetValue      int64     `json:"net_value"`
	TotalVolume   int64     `json:"total_volume"`
	TotalValue    int64     `json:"total_value"`
}

// NewNetVolumeRecord constructs a validated net volume record
func NewNetVolumeRecord(data map[string]any) (*NetVolumeRecord, error) {
	transactionID, err := validate.ID("transaction_id", data["transaction_id"])
	if err != nil {
		return nil, err
	}
	stockID, err := validate.ID("stock_id", data["stock_id"])
	if err != nil {
		return nil, err
	}
	date, err := validate.DateValue("date", data["date"])
	if err != nil {
		return nil, err
	}
	currency, err := optCurrency(data, "currency")
	if err != nil {
		return nil, err
	}
	netVolume, err := optInt(data, "net_volume", 0)
	if err != nil {
		return nil, err
	}
	netValue, err := optInt(data, "net_value", 0)
	if err != nil {
		return nil, err
	}
	totalVolume, err := optInt(data, "total_volume", 0)
	if err != nil {
		return nil, err
	}
	totalValue, err := optInt(data, "total_value", 0)
	if err != nil {
		return nil, err
	}
	return &NetVolumeRecord{
		TransactionID: transactionID,
		StockID:       stockID,
		Date:          date.In(tz),
		Currency:      currency,
		NetVolume:     netVolume,
		NetValue:      netValue,
		TotalVolume:   totalVolume,
		TotalValue:    totalValue,
	}, nil
}

// Apply reassigns the mutable fields, keeping the original date
func (r *NetVolumeRecord) Apply(data map[string]any) error {
	next, err := NewNetVolumeRecord(data)
	if err != nil {
		return err
	}
	next.Date = r.Date
	*r = *next
	return nil
}

// Equal compares net volume records by natural key only
func (r *NetVolumeRecord) Equal(other *NetVolumeRecord) bool {
	if other == nil {
		return false
	}
	return r.TransactionID == other.TransactionID && r.StockID == other.StockID && sameDay(r.Date, other.Date)
}

// percentField reads an optional percent field, defaulting to zero
func percentField(data map[string]any, field string) (int64, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return 0, nil
	}
	return validate.Percent(field, v)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
