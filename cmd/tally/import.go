package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/importer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <file.ofx> [file.ofx...]",
		Short: "Import OFX/QFX bank statements",
		Long: `Parse bank or credit card statements and load their transactions into
a user's ledger. Entries carry the bank's FITID, so importing the same
statement twice only inserts each transaction once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "", "email of the account to import into (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func parseStatements(paths []string) ([]importer.Entry, error) {
	var entries []importer.Entry
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open statement: %w", err)
		}

		parsed, err := importer.ParseOFX(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		entries = append(entries, parsed...)
	}
	return entries, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("user")

	entries, err := parseStatements(args)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("statements contain no transactions")
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	user, err := store.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no account registered for %s", email)
		}
		return err
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing transactions..."),
	)

	result, err := importer.New(store).Import(cmd.Context(), user.ID, entries, func() {
		_ = bar.Add(1)
	})
	if err != nil {
		return err
	}

	cmd.Printf("\nimported %d, duplicates %d, skipped %d\n",
		result.Imported, result.Duplicates, result.Skipped)
	return nil
}
