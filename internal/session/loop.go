package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tickrecorder/config"
)

// Evaluator decides whether trading is active at an instant. Implemented by
// Clock.
type Evaluator interface {
	Evaluate(now time.Time) (bool, TradingDay, error)
}

// Flusher drains the buffer into the trading day's files. Implemented by the
// flush package.
type Flusher interface {
	Flush(ctx context.Context, day TradingDay) error
}

// Ingestor is the recording side started for the duration of one active
// session.
type Ingestor interface {
	Start(ctx context.Context, day TradingDay) error
	Stop()
}

// Loop drives one trading cycle: idle-poll the clock until a session opens,
// record while it runs, flush at the scheduled close times, then return.
// Each cycle is an independent process lifetime: the external supervisor
// restarts the process, which re-enters the idle poll with no carried state.
type Loop struct {
	clock    Evaluator
	flusher  Flusher
	ingestor Ingestor
	logger   *zap.Logger

	flushDay    TimeOfDay
	flushNight  TimeOfDay
	pollIdle    time.Duration
	pollActive  time.Duration
	settlePause time.Duration

	now func() time.Time
}

func NewLoop(clock Evaluator, flusher Flusher, ingestor Ingestor,
	cfg config.SessionConfig, logger *zap.Logger) (*Loop, error) {
	flushDay, err := ParseTimeOfDay(cfg.FlushDay)
	if err != nil {
		return nil, fmt.Errorf("flush_day: %w", err)
	}
	flushNight, err := ParseTimeOfDay(cfg.FlushNight)
	if err != nil {
		return nil, fmt.Errorf("flush_night: %w", err)
	}

	return &Loop{
		clock:       clock,
		flusher:     flusher,
		ingestor:    ingestor,
		logger:      logger,
		flushDay:    flushDay,
		flushNight:  flushNight,
		pollIdle:    cfg.PollIdle,
		pollActive:  cfg.PollActive,
		settlePause: cfg.SettlePause,
		now:         time.Now,
	}, nil
}

// Run blocks until one full trading cycle has been captured and flushed, or
// the context is canceled. A nil return means the cycle flushed cleanly and
// the process should exit so the supervisor can restart it for the next
// session.
func (l *Loop) Run(ctx context.Context) error {
	day, err := l.idle(ctx)
	if err != nil {
		return err
	}
	return l.active(ctx, day)
}

// idle polls the session clock until trading opens.
func (l *Loop) idle(ctx context.Context) (TradingDay, error) {
	l.logger.Info("idle: waiting for a trading session",
		zap.Duration("poll", l.pollIdle))

	var lastAmbiguous bool
	for {
		trading, day, err := l.clock.Evaluate(l.now())

		var ambiguous *AmbiguousSessionError
		switch {
		case errors.As(err, &ambiguous):
			// Deliberately loud: an unmatched date means the calendar
			// needs review, not that the market is closed. Logged on
			// the transition so a whole evening doesn't spam.
			if !lastAmbiguous {
				l.logger.Error("ambiguous session state", zap.Error(err))
			}
			lastAmbiguous = true
		case err != nil:
			return "", err
		case trading:
			l.logger.Info("session open",
				zap.String("trading_day", day.String()))
			return day, nil
		default:
			lastAmbiguous = false
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.pollIdle):
		}
	}
}

// active records until one of the two flush trigger times is reached, then
// flushes and winds the cycle down.
func (l *Loop) active(ctx context.Context, day TradingDay) error {
	if err := l.ingestor.Start(ctx, day); err != nil {
		return fmt.Errorf("start ingestion: %w", err)
	}

	l.logger.Info("active: recording",
		zap.String("trading_day", day.String()),
		zap.String("flush_day", l.flushDay.String()),
		zap.String("flush_night", l.flushNight.String()))

	for {
		select {
		case <-ctx.Done():
			l.ingestor.Stop()
			return ctx.Err()
		case <-time.After(l.pollActive):
		}

		tod := TimeOfDayFrom(l.now())
		if !tod.Equal(l.flushDay) && !tod.Equal(l.flushNight) {
			continue
		}

		l.logger.Info("flush trigger reached", zap.String("time", tod.String()))
		if err := l.flusher.Flush(ctx, day); err != nil {
			l.ingestor.Stop()
			return fmt.Errorf("flush: %w", err)
		}

		// Let buffered I/O settle before the process goes away.
		select {
		case <-ctx.Done():
		case <-time.After(l.settlePause):
		}

		l.ingestor.Stop()
		l.logger.Info("cycle complete, exiting for supervisor restart")
		return nil
	}
}
