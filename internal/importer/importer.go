package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/storage"
)

// Store is the persistence surface the importer drives.
type Store interface {
	CreateTransaction(ctx context.Context, userID int64, params storage.CreateTransactionParams) (int64, error)
}

// Importer writes statement entries into a user's ledger.
type Importer struct {
	store Store
}

// New creates an importer over the given store.
func New(store Store) *Importer {
	return &Importer{store: store}
}

// Result summarizes one import run.
type Result struct {
	Imported   int
	Duplicates int
	Skipped    int
}

// Import inserts the entries for the given user. Entries already
// imported under the same reference count as duplicates; zero-amount
// entries are skipped. The progress callback, if non-nil, fires once
// per entry.
func (im *Importer) Import(ctx context.Context, userID int64, entries []Entry, progress func()) (*Result, error) {
	result := &Result{}

	for _, entry := range entries {
		if progress != nil {
			progress()
		}

		if !entry.Amount.IsPositive() {
			result.Skipped++
			continue
		}

		_, err := im.store.CreateTransaction(ctx, userID, storage.CreateTransactionParams{
			Amount:      entry.Amount,
			Kind:        entry.Kind,
			Date:        entry.Date,
			Description: entry.Description,
			ImportRef:   entry.Ref,
		})
		if errors.Is(err, common.ErrConflict) {
			result.Duplicates++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to import entry %q: %w", entry.Ref, err)
		}
		result.Imported++
	}

	slog.Info("imported statement",
		"user_id", userID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped)
	return result, nil
}
