// Package recorder wires the market gateway into the tick buffer: it
// registers futures contracts as they are announced and pushes serialized
// ticks for every known instrument.
package recorder

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"tickrecorder/config"
	"tickrecorder/internal/buffer"
	"tickrecorder/internal/session"
	"tickrecorder/internal/tick"
	"tickrecorder/pkg/gateway"
)

// Gateway is the slice of the connectivity layer the recorder needs.
type Gateway interface {
	Connect() error
	Listen()
	Close() error
	SetMessageHandler(func([]byte))
	Subscribe(symbol string) error
}

// Recorder consumes gateway events during an active session. It is started
// with the trading day the session clock assigned and records until stopped.
type Recorder struct {
	buf     buffer.Buffer
	gw      Gateway
	exclude []string
	logger  *zap.Logger

	mu        sync.RWMutex
	contracts map[string]tick.Contract
	day       session.TradingDay
	ctx       context.Context

	dropped    atomic.Int64
	pushFailed atomic.Int64
}

func New(buf buffer.Buffer, gw Gateway, cfg config.RecorderConfig, logger *zap.Logger) *Recorder {
	return &Recorder{
		buf:       buf,
		gw:        gw,
		exclude:   cfg.ExcludePrefixes,
		logger:    logger,
		contracts: make(map[string]tick.Contract),
	}
}

// Start connects the gateway and begins recording under the given trading
// day. The listener runs until Stop.
func (r *Recorder) Start(ctx context.Context, day session.TradingDay) error {
	r.mu.Lock()
	r.day = day
	r.ctx = ctx
	r.mu.Unlock()

	r.gw.SetMessageHandler(MakeMessageHandler(r.logger, r))
	if err := r.gw.Connect(); err != nil {
		return err
	}
	go r.gw.Listen()

	r.logger.Info("recording started", zap.String("trading_day", day.String()))
	return nil
}

// Stop closes the gateway connection.
func (r *Recorder) Stop() {
	if err := r.gw.Close(); err != nil {
		r.logger.Warn("gateway close", zap.Error(err))
	}
	r.logger.Info("recording stopped",
		zap.Int64("dropped_unknown_contract", r.dropped.Load()),
		zap.Int64("push_failures", r.pushFailed.Load()))
}

// HandleContract registers a futures contract and subscribes to its tick
// stream. Non-futures products and excluded symbol prefixes are skipped.
func (r *Recorder) HandleContract(msg gateway.ContractMessage) {
	if msg.Product != tick.ProductFutures {
		return
	}
	if r.excluded(msg.Symbol) {
		return
	}

	r.mu.Lock()
	_, known := r.contracts[msg.Symbol]
	r.contracts[msg.Symbol] = tick.Contract{
		Symbol:    msg.Symbol,
		Exchange:  msg.Exchange,
		Product:   msg.Product,
		Size:      msg.Size,
		PriceTick: msg.PriceTick,
	}
	r.mu.Unlock()

	if known {
		return
	}
	if err := r.gw.Subscribe(msg.Symbol); err != nil {
		r.logger.Warn("failed to subscribe",
			zap.String("symbol", msg.Symbol), zap.Error(err))
		return
	}
	r.logger.Info("subscribed",
		zap.String("symbol", msg.Symbol), zap.String("exchange", msg.Exchange))
}

// HandleTick serializes and buffers one observation. Ticks for instruments
// with no contract metadata yet are dropped without noise: the contract
// announcement may legitimately arrive after the first tick.
func (r *Recorder) HandleTick(msg gateway.TickMessage) {
	r.mu.RLock()
	contract, known := r.contracts[msg.Symbol]
	day := r.day
	ctx := r.ctx
	r.mu.RUnlock()

	if !known {
		r.dropped.Add(1)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := toTick(msg)
	if err := r.buf.Push(ctx, msg.Symbol, t.Row(day.String(), &contract)); err != nil {
		r.pushFailed.Add(1)
		r.logger.Error("failed to buffer tick",
			zap.String("symbol", msg.Symbol), zap.Error(err))
	}
}

// ContractCount reports how many instruments are registered for recording.
func (r *Recorder) ContractCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}

func (r *Recorder) excluded(symbol string) bool {
	for _, prefix := range r.exclude {
		if strings.HasPrefix(symbol, prefix) {
			return true
		}
	}
	return false
}
