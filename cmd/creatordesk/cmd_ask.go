package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/creatordesk/internal/types"
)

var askFlags struct {
	user      string
	stateKey  string
	web       bool
	docs      bool
	messages  bool
	catalog   bool
	iterate   bool
	reasoning string
	showSteps bool
}

func init() {
	askCmd.Flags().StringVar(&askFlags.user, "user", "cli", "user identity for state scoping")
	askCmd.Flags().StringVar(&askFlags.stateKey, "state-key", "", "continue a previous conversation context")
	askCmd.Flags().BoolVar(&askFlags.web, "web", false, "include web search results")
	askCmd.Flags().BoolVar(&askFlags.docs, "docs", false, "include document store results")
	askCmd.Flags().BoolVar(&askFlags.messages, "messages", false, "include messaging inbox results")
	askCmd.Flags().BoolVar(&askFlags.catalog, "catalog", false, "include data catalog results")
	askCmd.Flags().BoolVar(&askFlags.iterate, "iterate", false, "allow the iterative tool-calling loop")
	askCmd.Flags().StringVar(&askFlags.reasoning, "reasoning", "", "reasoning level: high, medium, or low")
	askCmd.Flags().BoolVar(&askFlags.showSteps, "steps", false, "print the steps the loop took")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run one orchestration request from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	req := &types.AgentRequest{
		Query:           strings.Join(args, " "),
		UserID:          types.UserID(askFlags.user),
		StateKey:        types.StateKey(askFlags.stateKey),
		IncludeWeb:      askFlags.web,
		IncludeDocs:     askFlags.docs,
		IncludeMessages: askFlags.messages,
		IncludeCatalog:  askFlags.catalog,
		AllowIterations: askFlags.iterate,
		ReasoningLevel:  askFlags.reasoning,
	}

	resp, err := orch.Run(context.Background(), req)
	if err != nil {
		return err
	}
	store.WaitForWrites()

	fmt.Fprintln(os.Stdout, resp.Answer)
	if resp.Reasoning != "" {
		fmt.Fprintln(os.Stdout, "\nReasoning:", resp.Reasoning)
	}
	if askFlags.showSteps {
		for _, step := range resp.StepsTaken {
			fmt.Fprintf(os.Stdout, "[%d] %s -> %s\n", step.Step, step.Action, step.Result)
		}
	}
	if resp.StateKey != "" {
		fmt.Fprintln(os.Stdout, "\nState key:", resp.StateKey)
	}
	return nil
}
