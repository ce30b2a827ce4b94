package tick

import (
	"strconv"
	"strings"
	"time"
)

// ProductFutures is the only product kind the recorder captures.
const ProductFutures = "futures"

// Contract is the static metadata for one tradable instrument, delivered by
// the gateway before (or after) its first tick.
type Contract struct {
	Symbol    string
	Exchange  string
	Product   string
	Size      float64 // contract multiplier
	PriceTick float64 // minimum price increment
}

// Tick is one market observation for one instrument at one instant.
// Immutable once produced.
type Tick struct {
	Symbol   string
	Exchange string
	Time     time.Time

	LastPrice       float64
	PreSettlement   float64
	PreClose        float64
	PreOpenInterest float64
	OpenPrice       float64
	HighPrice       float64
	LowPrice        float64
	Volume          float64
	Turnover        float64
	OpenInterest    float64
	ClosePrice      float64
	SettlementPrice float64
	LimitUp         float64
	LimitDown       float64

	// Five levels of depth. Level 1 is the touch.
	BidPrice  [5]float64
	BidVolume [5]float64
	AskPrice  [5]float64
	AskVolume [5]float64

	AveragePrice float64
}

// Header is the fixed daily-file header row. Column order matches Row
// exactly.
var Header = []string{
	"TradingDay",
	"ActionDay",
	"UpdateTime",
	"UpdateMillisec",
	"InstrumentID",
	"ExchangeID",
	"LastPrice",
	"PreSettlementPrice",
	"PreClosePrice",
	"PreOpenInterest",
	"OpenPrice",
	"HighestPrice",
	"LowestPrice",
	"Volume",
	"Turnover",
	"OpenInterest",
	"ClosePrice",
	"SettlementPrice",
	"UpperLimitPrice",
	"LowerLimitPrice",
	"BidPrice1",
	"BidVolume1",
	"AskPrice1",
	"AskVolume1",
	"BidPrice2",
	"BidVolume2",
	"AskPrice2",
	"AskVolume2",
	"BidPrice3",
	"BidVolume3",
	"AskPrice3",
	"AskVolume3",
	"BidPrice4",
	"BidVolume4",
	"AskPrice4",
	"AskVolume4",
	"BidPrice5",
	"BidVolume5",
	"AskPrice5",
	"AskVolume5",
	"AveragePrice",
	"VolumeMultiple",
	"PriceTick",
}

// HeaderLine is Header joined as a CSV line.
var HeaderLine = strings.Join(Header, ",")

// Row serializes the tick as one comma-separated line in Header order,
// stamped with the trading day the session clock assigned. Numbers are
// written with at most four decimal places so the daily files never need a
// size-reduction rewrite.
func (t *Tick) Row(tradingDay string, c *Contract) string {
	fields := make([]string, 0, len(Header))
	fields = append(fields,
		tradingDay,
		t.Time.Format("20060102"),
		t.Time.Format("15:04:05"),
		strconv.Itoa(t.Time.Nanosecond()/1e6),
		t.Symbol,
		t.Exchange,
		N(t.LastPrice),
		N(t.PreSettlement),
		N(t.PreClose),
		N(t.PreOpenInterest),
		N(t.OpenPrice),
		N(t.HighPrice),
		N(t.LowPrice),
		N(t.Volume),
		N(t.Turnover),
		N(t.OpenInterest),
		N(t.ClosePrice),
		N(t.SettlementPrice),
		N(t.LimitUp),
		N(t.LimitDown),
	)
	for level := 0; level < 5; level++ {
		fields = append(fields,
			N(t.BidPrice[level]),
			N(t.BidVolume[level]),
			N(t.AskPrice[level]),
			N(t.AskVolume[level]),
		)
	}
	fields = append(fields,
		N(t.AveragePrice),
		N(c.Size),
		N(c.PriceTick),
	)
	return strings.Join(fields, ",")
}

// N formats a numeric field rounded to four decimal places with trailing
// zeros trimmed, the on-disk precision contract for daily files.
func N(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
