package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/countryrates/country-service/internal/app"
	"github.com/countryrates/country-service/internal/config"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/spf13/pflag"
)

// refresh runs one refresh cycle against the configured store without starting
// the HTTP server, then prints the run record as JSON.
func main() {
	history := pflag.IntP("history", "n", 0, "print the last N journaled runs instead of refreshing (requires REDIS_HOST)")
	pflag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if err := checkHistory(*history, cfg, true); err != nil {
		logger.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize service: %v", err)
	}
	defer a.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *history > 0 {
		if err := checkHistory(*history, cfg, a.DurableJournal()); err != nil {
			logger.Errorf("%v", err)
			a.Close()
			os.Exit(1)
		}
		runs, err := a.Service.RecentRuns(ctx, *history)
		if err != nil {
			logger.Errorf("no refresh history: %v", err)
			a.Close()
			os.Exit(1)
		}
		_ = enc.Encode(runs)
		return
	}

	res, err := a.Service.Refresh(ctx)
	if err != nil {
		logger.Errorf("refresh failed: %v", err)
		a.Close()
		os.Exit(1)
	}
	logger.Infof("refreshed %d countries", res.TotalCountries)
	_ = enc.Encode(res.Run)
}

var errNoJournal = errors.New("--history needs the Redis run journal; set REDIS_HOST to a reachable server")

// checkHistory rejects --history when runs would only be read from a fresh
// in-memory journal.
func checkHistory(history int, cfg *config.Config, durable bool) error {
	if history <= 0 {
		return nil
	}
	if cfg.Redis.Host == "" || !durable {
		return errNoJournal
	}
	return nil
}
