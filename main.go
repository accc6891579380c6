package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lbc-bureaux-scraper/config"
	"lbc-bureaux-scraper/housekeeping"
	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/scraper/leboncoin"
	"lbc-bureaux-scraper/services"
	"lbc-bureaux-scraper/storage"
	"lbc-bureaux-scraper/utils"
)

func main() {
	cfg := config.Load()

	opts, err := config.ParseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	logger, err := utils.NewFileLogger(cfg.LogFile)
	if err != nil {
		logger.Warn("File logging disabled: %v", err)
	}
	defer logger.Close()
	logger.SetLevel(cfg.LogLevel)

	if opts.Clean {
		os.Exit(runClean(cfg, logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(runScrape(ctx, cfg, opts, logger))
}

func runClean(cfg *config.Config, logger *utils.Logger) int {
	policy, err := housekeeping.LoadPolicy(cfg.HousekeepingConfig)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	res := housekeeping.NewOrganizer(".", policy, os.Stdout, logger).Run()
	if res.Failures > 0 {
		return 1
	}
	return 0
}

func runScrape(ctx context.Context, cfg *config.Config, opts *config.Options, logger *utils.Logger) int {
	logger.Info("=== Leboncoin Bureaux & Commerces scraper starting ===")
	logger.Info("Config: max pages %d | page size %d | delay %v | timeout %v",
		opts.Criteria.MaxPages, opts.Criteria.PageSize, opts.Delay, cfg.RequestTimeout)

	clientOpts := leboncoin.Options{Timeout: cfg.RequestTimeout}
	if opts.Proxy != nil {
		clientOpts.Proxy = opts.Proxy.URL()
		logger.Info("Using proxy %s", opts.Proxy)
	}
	client := leboncoin.NewClient(clientOpts, logger)

	if cfg.BrowserWarmup {
		session, err := leboncoin.Warmup(ctx, warmupOptions(cfg, opts, logger), logger)
		if err != nil {
			logger.Warn("Continuing without browser session: %v", err)
		} else {
			client.SetSession(session)
		}
	}

	collector := services.NewCollector(client, services.NewNormalizer(logger), utils.NewPacer(opts.Delay), logger)
	session, err := collector.Collect(ctx, opts.Criteria)
	if err != nil {
		if errors.Is(err, leboncoin.ErrBlocked) {
			logger.Error("Blocked by the anti-bot layer; try -proxy or LBC_BROWSER_WARMUP=true")
		}
		logger.Error("Collection failed: %v", err)
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		return 1
	}

	records := session.Exportable()
	if len(records) == 0 {
		fmt.Println("ℹ️  No results found for these criteria.")
		return 0
	}
	logger.Info("Collected %d listings over %d page(s) (run %s)", len(records), session.Pages, session.RunID)

	var exporter storage.RecordExporter = storage.NewCSVWriter(cfg.ExportDir, logger)
	path, err := exporter.Export(records, storage.ExportOptions{
		Filename:      opts.Output,
		City:          opts.City,
		RawAttributes: opts.RawAttributes,
	})
	if err != nil {
		logger.Error("CSV export failed: %v", err)
		fmt.Fprintf(os.Stderr, "❌ Export failed: %v\n", err)
		return 1
	}
	fmt.Printf("✅ %d listings exported to %s\n", len(records), path)

	if cfg.PostgresEnabled {
		writeToPostgres(ctx, cfg, session, records, logger)
	}

	if opts.Stats {
		insights := services.NewInsightService(logger)
		insights.Print(os.Stdout, insights.Generate(records))
	}
	return 0
}

// writeToPostgres mirrors the run into the database. Failures are logged
// only: the CSV file is the primary output.
func writeToPostgres(ctx context.Context, cfg *config.Config, session *models.Session, records []models.Record, logger *utils.Logger) {
	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return
	}
	defer pg.Close()

	var sink storage.RecordSink = pg
	if err := sink.Write(ctx, session.RunID, records); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}

	n, err := pg.CountRun(ctx, session.RunID)
	if err != nil {
		logger.Warn("Could not count stored rows: %v", err)
		return
	}
	logger.Info("Stored %d listings in PostgreSQL (table: lbc_listings)", n)
}

// warmupOptions configures the browser visit: retries back off from
// cfg.RetryDelay and Chrome goes through the same proxy as the API client.
func warmupOptions(cfg *config.Config, opts *config.Options, logger *utils.Logger) leboncoin.WarmupOptions {
	w := leboncoin.WarmupOptions{
		ChromeBin: cfg.ChromeBin,
		Retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryDelay,
			Logger:      logger,
		},
	}
	if opts.Proxy != nil {
		w.ProxyServer = proxyServer(opts.Proxy)
	}
	return w
}

// proxyServer renders a proxy as scheme://host:port for Chrome, which does
// not accept inline credentials.
func proxyServer(p *config.Proxy) string {
	u := url.URL{Scheme: p.Scheme, Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
	return u.String()
}
