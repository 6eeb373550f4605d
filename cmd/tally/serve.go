package main

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallyapp/tally/internal/auth"
	"github.com/tallyapp/tally/internal/category"
	"github.com/tallyapp/tally/internal/config"
	"github.com/tallyapp/tally/internal/ledger"
	"github.com/tallyapp/tally/internal/server"
	"github.com/tallyapp/tally/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	secret := viper.GetString("auth.token_secret")
	if secret == "" {
		return fmt.Errorf("auth.token_secret must be set (config file or TALLY_AUTH_TOKEN_SECRET)")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	tokenTTL := viper.GetDuration("auth.token_ttl")
	slowThreshold := viper.GetDuration("ledger.slow_query_threshold")
	if slowThreshold <= 0 {
		slowThreshold = ledger.DefaultSlowQueryThreshold
	}

	accounts := auth.NewService(store, auth.NewTokenIssuer([]byte(secret), tokenTTL, nil))
	srv := server.New(
		ledger.NewService(store, slowThreshold),
		category.NewService(store),
		accounts,
	)

	addr := viper.GetString("server.addr")
	slog.Info("starting server", "addr", addr, "token_ttl", tokenTTL)
	return srv.ListenAndServe(cmd.Context(), addr)
}

func openStore() (*storage.SQLiteStore, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	start := time.Now()
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Debug("opened database", "path", dbPath, "elapsed", time.Since(start))

	return store, nil
}
