package gateway

import "encoding/json"

// Envelope is the outer frame of every gateway message. Data holds the
// type-specific payload.
type Envelope struct {
	Type string          `json:"type"` // "contract" or "tick"
	Data json.RawMessage `json:"data"`
}

const (
	TypeContract = "contract"
	TypeTick     = "tick"
)

// ContractMessage announces a tradable instrument and its static metadata.
// It may arrive before or after the instrument's first tick.
type ContractMessage struct {
	Symbol    string  `json:"symbol"`
	Exchange  string  `json:"exchange"`
	Product   string  `json:"product"` // e.g. "futures", "option"
	Size      float64 `json:"size"`    // contract multiplier
	PriceTick float64 `json:"price_tick"`
}

// TickMessage is one market observation as sent by the gateway.
type TickMessage struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch

	LastPrice       float64 `json:"last_price"`
	PreSettlement   float64 `json:"pre_settlement"`
	PreClose        float64 `json:"pre_close"`
	PreOpenInterest float64 `json:"pre_open_interest"`
	OpenPrice       float64 `json:"open_price"`
	HighPrice       float64 `json:"high_price"`
	LowPrice        float64 `json:"low_price"`
	Volume          float64 `json:"volume"`
	Turnover        float64 `json:"turnover"`
	OpenInterest    float64 `json:"open_interest"`
	ClosePrice      float64 `json:"close_price"`
	SettlementPrice float64 `json:"settlement_price"`
	LimitUp         float64 `json:"limit_up"`
	LimitDown       float64 `json:"limit_down"`

	BidPrice  [5]float64 `json:"bid_price"`
	BidVolume [5]float64 `json:"bid_volume"`
	AskPrice  [5]float64 `json:"ask_price"`
	AskVolume [5]float64 `json:"ask_volume"`

	AveragePrice float64 `json:"average_price"`
}
