package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agencyledger/internal/jobs"
	"agencyledger/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()
	log := logger.Named("jobs")

	cfg, err := jobs.LoadConfig()
	if err != nil {
		log.Errorw("configuration error", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	runner := jobs.NewRunner(jobs.NewClient(cfg.APIURL, cfg.APIKey, httpClient), log)

	result := runner.Run(ctx, cfg.OrgIDs, cfg.Period)

	log.Infow("job run completed",
		"orgs", result.Orgs,
		"transactions_booked", result.TransactionsBooked,
		"invoices_generated", result.InvoicesGenerated,
		"invoices_overdue", result.InvoicesOverdue,
		"failures", len(result.Failures),
		"duration", result.Duration.String(),
	)

	if len(result.Failures) > 0 {
		logger.Sync()
		stop()
		os.Exit(2)
	}
}
