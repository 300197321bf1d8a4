package receipts

import (
	"context"

	"github.com/kvittoapp/kvitto/sdk/receipts"
)

// Store is an interface for components that manage persistence of Receipts.
type Store interface {
	// Create stores the provided Receipt.
	Create(context.Context, receipts.Receipt) error
	// ListByUser returns all Receipts belonging to the identified user,
	// newest first.
	ListByUser(ctx context.Context, userID string) (
		receipts.ReceiptList,
		error,
	)
	// Get returns the Receipt having the identifier provided. Implementations
	// MUST return a *meta.ErrNotFound when no such Receipt exists.
	Get(context.Context, string) (receipts.Receipt, error)
}
