package recorder

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tickrecorder/internal/tick"
	"tickrecorder/pkg/gateway"
)

// MakeMessageHandler returns a function that handles raw gateway frames by
// parsing the envelope and fanning out to the recorder's event handlers.
func MakeMessageHandler(logger *zap.Logger, r *Recorder) func(msg []byte) {
	return func(msg []byte) {
		var env gateway.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warn("failed to parse gateway envelope", zap.Error(err))
			return
		}

		switch env.Type {
		case gateway.TypeContract:
			var contract gateway.ContractMessage
			if err := json.Unmarshal(env.Data, &contract); err != nil {
				logger.Warn("failed to parse contract payload", zap.Error(err))
				return
			}
			r.HandleContract(contract)

		case gateway.TypeTick:
			var t gateway.TickMessage
			if err := json.Unmarshal(env.Data, &t); err != nil {
				logger.Warn("failed to parse tick payload", zap.Error(err))
				return
			}
			r.HandleTick(t)

		default:
			// Subscription acks and heartbeats are not recorded.
		}
	}
}

func toTick(msg gateway.TickMessage) tick.Tick {
	return tick.Tick{
		Symbol:          msg.Symbol,
		Exchange:        msg.Exchange,
		Time:            time.UnixMilli(msg.Timestamp),
		LastPrice:       msg.LastPrice,
		PreSettlement:   msg.PreSettlement,
		PreClose:        msg.PreClose,
		PreOpenInterest: msg.PreOpenInterest,
		OpenPrice:       msg.OpenPrice,
		HighPrice:       msg.HighPrice,
		LowPrice:        msg.LowPrice,
		Volume:          msg.Volume,
		Turnover:        msg.Turnover,
		OpenInterest:    msg.OpenInterest,
		ClosePrice:      msg.ClosePrice,
		SettlementPrice: msg.SettlementPrice,
		LimitUp:         msg.LimitUp,
		LimitDown:       msg.LimitDown,
		BidPrice:        msg.BidPrice,
		BidVolume:       msg.BidVolume,
		AskPrice:        msg.AskPrice,
		AskVolume:       msg.AskVolume,
		AveragePrice:    msg.AveragePrice,
	}
}
