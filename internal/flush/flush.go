// Package flush drains the tick buffer into per-trading-day CSV files and
// archives completed days.
package flush

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tickrecorder/internal/buffer"
	"tickrecorder/internal/calendar"
	"tickrecorder/internal/session"
	"tickrecorder/internal/tick"
)

// Flusher drains every instrument's buffered rows into that instrument's
// daily file. Two flushes run per trading cycle: at the day-session close and
// at the overnight close.
type Flusher struct {
	buf         buffer.Buffer
	outDir      string
	archiveGate session.TimeOfDay
	archiver    *Archiver
	logger      *zap.Logger

	// Exclusive per-file locks: nothing may touch a daily file while a
	// flush is writing it.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

func NewFlusher(buf buffer.Buffer, outDir string, archiveGate session.TimeOfDay,
	archiver *Archiver, logger *zap.Logger) *Flusher {
	return &Flusher{
		buf:         buf,
		outDir:      outDir,
		archiveGate: archiveGate,
		archiver:    archiver,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
		now:         time.Now,
	}
}

// Flush drains the buffer and appends every instrument's rows to its daily
// file under the trading day's directory. A failing instrument is logged and
// skipped; the flush continues for the others. When the trading day's own
// calendar date is today and the archive gate has passed, the day is archived
// before Flush returns.
func (f *Flusher) Flush(ctx context.Context, day session.TradingDay) error {
	drained, err := f.buf.DrainAll(ctx)
	if err != nil {
		return fmt.Errorf("flush: drain: %w", err)
	}

	if len(drained) > 0 {
		dir := filepath.Join(f.outDir, day.String())
		// An already-existing directory is the normal second-flush case.
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("flush: mkdir %s: %w", dir, err)
		}

		symbols := make([]string, 0, len(drained))
		for symbol := range drained {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)

		var written, failed int
		for _, symbol := range symbols {
			rows := drained[symbol]
			if err := f.writeDailyFile(dir, symbol, rows); err != nil {
				failed++
				f.logger.Error("failed to write daily file",
					zap.String("symbol", symbol),
					zap.Int("rows", len(rows)),
					zap.Error(err))
				continue
			}
			written += len(rows)
		}

		f.logger.Info("flush complete",
			zap.String("trading_day", day.String()),
			zap.Int("instruments", len(symbols)),
			zap.Int("rows", written),
			zap.Int("failed_instruments", failed))
	} else {
		f.logger.Info("flush found no buffered rows",
			zap.String("trading_day", day.String()))
	}

	return f.maybeArchive(day)
}

// writeDailyFile appends rows to <dir>/<symbol>.csv, writing the header row
// first when the file does not exist yet. Rows carry fixed-precision numbers
// already, so appending is the whole job.
func (f *Flusher) writeDailyFile(dir, symbol string, rows []string) error {
	path := filepath.Join(dir, symbol+".csv")

	lock := f.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)
	if statErr != nil && !fresh {
		return fmt.Errorf("stat: %w", statErr)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if fresh {
		if _, err := w.WriteString(tick.HeaderLine + "\n"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range rows {
		if _, err := w.WriteString(row + "\n"); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush writer: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// maybeArchive archives the day when its own calendar date is today and the
// archive gate time has passed. The late-night flush for a trading day that
// spans into the next calendar date therefore never archives.
func (f *Flusher) maybeArchive(day session.TradingDay) error {
	dayDate, err := day.Date()
	if err != nil {
		return fmt.Errorf("flush: bad trading day %q: %w", day, err)
	}

	now := f.now()
	if !calendar.Midnight(now).Equal(calendar.Midnight(dayDate)) {
		return nil
	}
	if session.TimeOfDayFrom(now).Before(f.archiveGate) {
		return nil
	}

	if err := f.archiver.Archive(day); err != nil {
		return fmt.Errorf("flush: archive %s: %w", day, err)
	}
	return nil
}

func (f *Flusher) fileLock(path string) *sync.Mutex {
	f.locksMu.Lock()
	defer f.locksMu.Unlock()
	lock, ok := f.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[path] = lock
	}
	return lock
}
