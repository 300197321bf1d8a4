package receipts

import (
	"context"
	"testing"

	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	createFn     func(context.Context, receipts.Receipt) error
	listByUserFn func(context.Context, string) (receipts.ReceiptList, error)
	getFn        func(context.Context, string) (receipts.Receipt, error)
}

func (m *mockStore) Create(
	ctx context.Context,
	receipt receipts.Receipt,
) error {
	return m.createFn(ctx, receipt)
}

func (m *mockStore) ListByUser(
	ctx context.Context,
	userID string,
) (receipts.ReceiptList, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockStore) Get(
	ctx context.Context,
	id string,
) (receipts.Receipt, error) {
	return m.getFn(ctx, id)
}

var testUser = authx.User{
	ObjectMeta: meta.ObjectMeta{
		ID: "tony@starkindustries.com",
	},
	CompanyID: "stark-industries",
}

func authenticatedContext() context.Context {
	return authx.ContextWithUser(context.Background(), testUser)
}

func TestCreateWithoutUserInContext(t *testing.T) {
	service := NewService(&mockStore{})
	_, err := service.Create(context.Background(), receipts.Receipt{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no user found in request context")
}

func TestCreateRecordsOwnershipFromSession(t *testing.T) {
	var storedReceipt receipts.Receipt
	service := NewService(&mockStore{
		createFn: func(_ context.Context, receipt receipts.Receipt) error {
			storedReceipt = receipt
			return nil
		},
	})
	createdReceipt, err := service.Create(
		authenticatedContext(),
		receipts.Receipt{
			// A hostile client may claim any owner it likes; the claim must
			// be discarded
			UserID:      "loki@asgard.example.com",
			CompanyID:   "asgard",
			Merchant:    "Blue Bottle Coffee",
			TotalAmount: 525,
			Currency:    "USD",
		},
	)
	require.NoError(t, err)
	require.NotEmpty(t, createdReceipt.ID)
	require.NotNil(t, createdReceipt.Created)
	require.Equal(t, testUser.ID, createdReceipt.UserID)
	require.Equal(t, testUser.CompanyID, createdReceipt.CompanyID)
	require.Equal(t, createdReceipt, storedReceipt)
}

func TestCreateStoreError(t *testing.T) {
	service := NewService(&mockStore{
		createFn: func(context.Context, receipts.Receipt) error {
			return errors.New("store error")
		},
	})
	_, err := service.Create(authenticatedContext(), receipts.Receipt{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "store error")
}

func TestListScopesToAuthenticatedUser(t *testing.T) {
	service := NewService(&mockStore{
		listByUserFn: func(
			_ context.Context,
			userID string,
		) (receipts.ReceiptList, error) {
			require.Equal(t, testUser.ID, userID)
			return receipts.ReceiptList{
				Items: []receipts.Receipt{
					{
						Merchant: "Blue Bottle Coffee",
					},
				},
			}, nil
		},
	})
	receiptList, err := service.List(authenticatedContext())
	require.NoError(t, err)
	require.Len(t, receiptList.Items, 1)
}

func TestGet(t *testing.T) {
	service := NewService(&mockStore{
		getFn: func(
			_ context.Context,
			id string,
		) (receipts.Receipt, error) {
			return receipts.Receipt{
				ObjectMeta: meta.ObjectMeta{
					ID: id,
				},
				UserID: testUser.ID,
			}, nil
		},
	})
	receipt, err := service.Get(authenticatedContext(), "lunch")
	require.NoError(t, err)
	require.Equal(t, "lunch", receipt.ID)
}

func TestGetSomeoneElsesReceipt(t *testing.T) {
	service := NewService(&mockStore{
		getFn: func(
			_ context.Context,
			id string,
		) (receipts.Receipt, error) {
			return receipts.Receipt{
				ObjectMeta: meta.ObjectMeta{
					ID: id,
				},
				UserID: "loki@asgard.example.com",
			}, nil
		},
	})
	_, err := service.Get(authenticatedContext(), "lunch")
	require.Error(t, err)
	require.IsType(t, &meta.ErrNotFound{}, err)
}

func TestGetNonexistentReceipt(t *testing.T) {
	service := NewService(&mockStore{
		getFn: func(
			_ context.Context,
			id string,
		) (receipts.Receipt, error) {
			return receipts.Receipt{}, &meta.ErrNotFound{
				Type: "Receipt",
				ID:   id,
			}
		},
	})
	_, err := service.Get(authenticatedContext(), "lunch")
	require.Error(t, err)
	require.IsType(t, &meta.ErrNotFound{}, errors.Cause(err))
}
