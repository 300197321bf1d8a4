package receipts

import (
	"context"
	"time"

	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// Service is the specialized interface for managing Receipts. Every operation
// is scoped to the authenticated user found in the request context; a user
// can never see or touch another user's receipts.
type Service interface {
	// Create stores a new Receipt on behalf of the authenticated user.
	Create(context.Context, receipts.Receipt) (receipts.Receipt, error)
	// List returns the authenticated user's Receipts, newest first.
	List(context.Context) (receipts.ReceiptList, error)
	// Get retrieves a single Receipt belonging to the authenticated user.
	Get(ctx context.Context, id string) (receipts.Receipt, error)
}

type service struct {
	store Store
}

// NewService returns a specialized interface for managing Receipts.
func NewService(store Store) Service {
	return &service{
		store: store,
	}
}

func (s *service) Create(
	ctx context.Context,
	receipt receipts.Receipt,
) (receipts.Receipt, error) {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return receipt, errors.New(
			"error: receipt create request authenticated, but no user found in " +
				"request context",
		)
	}
	receipt.ID = uuid.NewV4().String()
	now := time.Now()
	receipt.Created = &now
	// Ownership is recorded from the session, never from the request body
	receipt.UserID = user.ID
	receipt.CompanyID = user.CompanyID
	if err := s.store.Create(ctx, receipt); err != nil {
		return receipt, errors.Wrapf(
			err,
			"error storing new receipt %q",
			receipt.ID,
		)
	}
	return receipt, nil
}

func (s *service) List(ctx context.Context) (receipts.ReceiptList, error) {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return receipts.ReceiptList{}, errors.New(
			"error: receipt list request authenticated, but no user found in " +
				"request context",
		)
	}
	receiptList, err := s.store.ListByUser(ctx, user.ID)
	if err != nil {
		return receiptList, errors.Wrapf(
			err,
			"error retrieving receipts for user %q from store",
			user.ID,
		)
	}
	return receiptList, nil
}

func (s *service) Get(
	ctx context.Context,
	id string,
) (receipts.Receipt, error) {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return receipts.Receipt{}, errors.New(
			"error: receipt get request authenticated, but no user found in " +
				"request context",
		)
	}
	receipt, err := s.store.Get(ctx, id)
	if err != nil {
		return receipt, errors.Wrapf(
			err,
			"error retrieving receipt %q from store",
			id,
		)
	}
	if receipt.UserID != user.ID {
		// Don't leak the receipt's existence to anyone it doesn't belong to
		return receipts.Receipt{}, &meta.ErrNotFound{
			Type: "Receipt",
			ID:   id,
		}
	}
	return receipt, nil
}
