package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/user/creatordesk/internal/agent"
	"github.com/user/creatordesk/internal/config"
	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/intent"
	"github.com/user/creatordesk/internal/payload"
	"github.com/user/creatordesk/internal/sources"
	"github.com/user/creatordesk/internal/statestore"
	"github.com/user/creatordesk/pkg/llm"
	"github.com/user/creatordesk/pkg/llm/openai"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "creatordesk",
	Short: "LLM-driven orchestration for the Creator IQ CRM",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath,
		"config",
		filepath.Join(os.Getenv("HOME"), ".creatordesk", "config.json"),
		"config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)
	return logger
}

// openStateStore opens the durable sqlite store under the data dir and
// layers the in-process cache on top.
func openStateStore(cfg *config.Config, logger *slog.Logger) (*statestore.Layered, *sql.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.StateDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open state db: %w", err)
	}
	durable, err := statestore.NewSQLStore(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init state db: %w", err)
	}
	return statestore.NewLayered(statestore.NewMemoryCache(), durable, logger), db, nil
}

// buildOrchestrator wires the full engine from config.
func buildOrchestrator(cfg *config.Config, store *statestore.Layered, logger *slog.Logger) (*agent.Orchestrator, error) {
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	ctxBuilder, err := agent.NewContextBuilder(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return nil, fmt.Errorf("create context builder: %w", err)
	}

	client := creatoriq.NewClient(cfg.CreatorIQ.BaseURL, cfg.CreatorIQ.APIKey, logger)
	aggregator := creatoriq.NewAggregator(client, payload.NewBuilder(logger), logger)

	srcs := []sources.Source{
		sources.NewMemory(store),
		sources.NewWebSearch(cfg.Brave.APIKey),
	}
	if cfg.DocStore.BaseURL != "" {
		srcs = append(srcs, sources.NewDocStore(cfg.DocStore.BaseURL))
	}
	if cfg.Messaging.BaseURL != "" {
		srcs = append(srcs, sources.NewMessaging(cfg.Messaging.BaseURL, cfg.Messaging.Token))
	}
	if cfg.Catalog.BaseURL != "" {
		srcs = append(srcs, sources.NewCatalog(cfg.Catalog.BaseURL))
	}

	return agent.NewOrchestrator(
		intent.NewResolver(logger),
		aggregator,
		ctxBuilder,
		provider,
		store,
		srcs,
		logger,
		agent.Options{
			MaxIterations:  cfg.Agent.MaxIterations,
			ReasoningLevel: cfg.Agent.ReasoningLevel,
		},
	), nil
}
