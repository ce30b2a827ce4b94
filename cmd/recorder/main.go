package main

import (
	"context"
	"flag"

	"tickrecorder/config"
	"tickrecorder/internal/buffer"
	"tickrecorder/internal/calendar"
	"tickrecorder/internal/flush"
	"tickrecorder/internal/recorder"
	"tickrecorder/internal/session"
	"tickrecorder/logger"
	"tickrecorder/pkg/gateway"
	"tickrecorder/pkg/storage/postgres"

	"go.uber.org/zap"
)

// The recorder runs one trading cycle per process lifetime: wait for a
// session, record it, flush at the scheduled close, exit. The supervisor
// (systemd or similar) restarts it for the next session.
func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml or ./config/config.yaml)")
	flag.Parse()

	// viper config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	cal, err := loadCalendar(cfg)
	if err != nil {
		log.Fatal("failed to load trading calendar", zap.Error(err))
	}
	log.Info("trading calendar loaded",
		zap.String("source", cfg.Calendar.Source), zap.Int("dates", cal.Len()))

	windows, err := session.WindowsFromConfig(cfg.Session)
	if err != nil {
		log.Fatal("invalid session windows", zap.Error(err))
	}
	clock := session.NewClock(cal, windows)

	buf, err := buffer.NewRedis(cfg.Redis, cfg.Redis.ResolvePassword(cfg.Log.Environment))
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer buf.Close()

	archiveGate, err := session.ParseTimeOfDay(cfg.Session.ArchiveGate)
	if err != nil {
		log.Fatal("invalid archive_gate", zap.Error(err))
	}
	archiver := flush.NewArchiver(cfg.Recorder.OutputDir, log)
	flusher := flush.NewFlusher(buf, cfg.Recorder.OutputDir, archiveGate, archiver, log)

	gw := gateway.NewWSClient(cfg.Gateway.URL, log)
	rec := recorder.New(buf, gw, cfg.Recorder, log)

	loop, err := session.NewLoop(clock, flusher, rec, cfg.Session, log)
	if err != nil {
		log.Fatal("invalid session schedule", zap.Error(err))
	}

	if err := loop.Run(context.Background()); err != nil {
		log.Fatal("recorder cycle failed", zap.Error(err))
	}
}

func loadCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	switch cfg.Calendar.Source {
	case "postgres":
		client, err := postgres.InitializeAndMigrateCalendar(cfg.Postgres, cfg.Log.Environment, false)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		return client.LoadCalendar(context.Background())
	default:
		return calendar.LoadCSV(cfg.Calendar.CSVPath)
	}
}
