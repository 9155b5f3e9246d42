package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/creatordesk/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the creatordesk HTTP daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := setupLogging(cfg)

	store, db, err := openStateStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := buildOrchestrator(cfg, store, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(orch.Run, logger)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("creatordesk started",
			"listen", cfg.Listen,
			"data_dir", cfg.DataDir,
			"log_level", cfg.LogLevel,
			"llm_model", cfg.LLM.Model,
			"crm_base_url", cfg.CreatorIQ.BaseURL,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	slog.Info("shutting down", "signal", sig)
	cancel()
	store.WaitForWrites()
	return nil
}
