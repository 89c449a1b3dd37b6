// Package repository persists the ledger and its derived views.
package repository

import (
	"context"

	"github.com/okian/fantaledger/internal/domain/model"
)

// Store provides read/write access to the persisted ledger.
type Store interface {
	// Load returns the full prior ledger. A missing or unreadable store
	// yields an empty ledger, not an error.
	Load(ctx context.Context) (model.Ledger, error)

	// Save replaces the stored ledger with ledger in a single write, together
	// with the views derived from it.
	Save(ctx context.Context, ledger model.Ledger) error
}
