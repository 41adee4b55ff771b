package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trendpub/internal/config"
	"trendpub/internal/logging"
	"trendpub/internal/notify"
	"trendpub/internal/rpc"
	"trendpub/internal/scheduler"
	"trendpub/internal/server"
	"trendpub/internal/storage"
	"trendpub/internal/workflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendpub-server",
		Short: "Scheduled-workflow orchestration and admin control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the admin HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	})
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("trendpub-server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting trendpub-server (addr=%s tz=%s db=%s)", cfg.Addr, cfg.Timezone, cfg.DBPath)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database: %v", err)
		}
	}()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	configStore := storage.NewConfigStore(db)
	ledger := storage.NewArticleLedger(db, location)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.BarkKey != "" {
		notifier = notify.NewBark(cfg.BarkBaseURL, cfg.BarkKey, logging.WithComponent(logger, "notify"))
	}

	registry := buildRegistry(cfg, logger)
	runner := workflow.NewRunner(registry, logging.WithComponent(logger, "workflow"))
	logger.Info("可用的工作流类型: %v", registry.Types())

	dispatcher, err := scheduler.New(
		scheduler.Config{Timezone: cfg.Timezone},
		configStore, registry, notifier,
		logging.WithComponent(logger, "scheduler"),
	)
	if err != nil {
		return err
	}

	rpcServer := rpc.NewServer(logging.WithComponent(logger, "rpc"))
	rpcServer.Register("triggerWorkflow", server.TriggerWorkflowMethod(runner))
	rpcServer.Register("recordArticle", server.RecordArticleMethod(ledger))

	gateway := server.New(
		server.Config{
			Addr:           cfg.Addr,
			EnableCORS:     cfg.EnableCORS,
			Debug:          cfg.Debug,
			FallbackAPIKey: cfg.APIKey,
		},
		server.Deps{
			ConfigStore: configStore,
			Articles:    ledger,
			Assignments: scheduler.NewAssignments(configStore),
			Trigger:     runner,
			RPC:         rpcServer,
			Logger:      logging.WithComponent(logger, "server"),
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gateway.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		dispatcher.Stop()
		return err
	case <-quit:
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown: %v", err)
	}
	cancel()
	dispatcher.Stop()
	<-dispatcher.Done()
	logger.Info("server stopped")
	return nil
}

// buildRegistry fixes registry membership at process start. Each configured
// webhook becomes an invocable workflow; the publishing pipelines themselves
// run outside this process.
func buildRegistry(cfg *config.Config, logger logging.Logger) *workflow.Registry {
	entries := make(map[workflow.Type]workflow.Workflow, len(cfg.WorkflowWebhooks))
	for workflowType, url := range cfg.WorkflowWebhooks {
		if url == "" {
			continue
		}
		entries[workflow.Type(workflowType)] = workflow.NewWebhook(
			workflow.Type(workflowType), url, logging.WithComponent(logger, "workflow"))
	}
	return workflow.NewRegistry(entries)
}
