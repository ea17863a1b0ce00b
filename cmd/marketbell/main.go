package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketBell/internal/api"
	"MarketBell/internal/collector"
	"MarketBell/internal/config"
	"MarketBell/internal/metrics"
	"MarketBell/internal/notifier"
	"MarketBell/internal/recorder"
	"MarketBell/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketBell starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	metrics.Init()

	// Init schedule provider
	var provider collector.Provider
	switch cfg.Provider.Kind {
	case config.ProviderHTTP:
		provider = collector.NewHTTPProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy, cfg.Provider.Timeout)
	case config.ProviderMock:
		provider = collector.NewMockProvider(collector.MockResult{Schedule: collector.DemoSchedule()})
	default:
		provider = collector.NewFileProvider(cfg.Provider.CalendarFile)
	}
	log.Printf("[INFO] schedule provider: %s", provider.Name())

	col := collector.NewCollector(provider)
	col.Backoff = cfg.Monitor.FetchBackoff

	rollover, err := scheduler.ParseCron(cfg.Schedule.RolloverCron)
	if err != nil {
		log.Fatalf("[FATAL] parse rollover cron: %v", err)
	}
	mon := scheduler.NewMonitor(col, scheduler.MonitorOptions{
		ActiveInterval: cfg.Monitor.ActiveInterval,
		IdleInterval:   cfg.Monitor.IdleInterval,
		Rollover:       rollover,
	})

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	var sender scheduler.Sender
	if tn.Enabled() {
		sender = tn
	} else {
		log.Println("[INFO] telegram not configured, notifications disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, mon, sender, rec, cfg.Database.RetentionDays)
	if err := sched.RegisterAll(cfg.Schedule.PruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}

	// WebSocket hub follows every published status
	hub := api.NewHub(mon)
	go hub.Run()
	defer hub.Close()
	mon.Subscribe(hub.Publish)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(mon, rec, hub).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()

	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	log.Println("[INFO] MarketBell is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] MarketBell stopped")
}
