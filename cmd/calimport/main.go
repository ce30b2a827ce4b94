package main

import (
	"context"
	"flag"

	"tickrecorder/config"
	"tickrecorder/internal/calendar"
	"tickrecorder/logger"
	"tickrecorder/pkg/storage/postgres"

	"go.uber.org/zap"
)

// calimport loads a trading-calendar CSV into the Postgres calendar table.
// Run it once a year when the exchange publishes the holiday schedule.
func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	csvPath := flag.String("csv", "", "calendar CSV to import (defaults to calendar.csv_path from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	path := *csvPath
	if path == "" {
		path = cfg.Calendar.CSVPath
	}

	cal, err := calendar.LoadCSV(path)
	if err != nil {
		log.Fatal("failed to read calendar CSV", zap.Error(err))
	}

	client, err := postgres.InitializeAndMigrateCalendar(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer client.Close()

	if err := client.UpsertEntries(context.Background(), cal.Entries()); err != nil {
		log.Fatal("failed to import calendar", zap.Error(err))
	}

	log.Info("calendar imported",
		zap.String("csv", path), zap.Int("dates", cal.Len()))
}
