package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/creatordesk/internal/statestore"
	"github.com/user/creatordesk/internal/types"
)

var stateUser string

func init() {
	stateCmd.PersistentFlags().StringVar(&stateUser, "user", "cli", "user identity for state scoping")
	stateCmd.AddCommand(stateListCmd, stateGetCmd, stateFlushCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the durable conversation state store",
}

func openDurable() (*statestore.SQLStore, *sql.DB, error) {
	cfg := loadConfig()
	logger := setupLogging(cfg)
	db, err := sql.Open("sqlite", cfg.StateDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open state db: %w", err)
	}
	store, err := statestore.NewSQLStore(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unexpired state entries for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openDurable()
		if err != nil {
			return err
		}
		defer db.Close()

		summaries, err := store.List(context.Background(), types.UserID(stateUser))
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stdout, "No state entries.")
			return nil
		}
		for _, s := range summaries {
			fmt.Fprintf(os.Stdout, "%s\n  context: %s\n  created: %s  expires: %s\n",
				s.Key, s.QueryContext,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
				s.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var stateFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Delete all state entries for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openDurable()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := store.Purge(context.Background(), types.UserID(stateUser))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %d state entries for %s\n", n, stateUser)
		return nil
	},
}

var stateGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one state entry as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openDurable()
		if err != nil {
			return err
		}
		defer db.Close()

		state, queryContext, err := store.Get(context.Background(), types.UserID(stateUser), types.StateKey(args[0]))
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("no state for key %s", args[0])
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		if queryContext != "" {
			fmt.Fprintln(os.Stdout, "query context:", queryContext)
		}
		return nil
	},
}
