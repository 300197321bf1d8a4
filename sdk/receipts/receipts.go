package receipts

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kvittoapp/kvitto/sdk/internal/restmachinery"
	"github.com/kvittoapp/kvitto/sdk/meta"
)

// Receipt represents a single purchase receipt.
type Receipt struct {
	meta.ObjectMeta `json:"metadata" bson:"metadata"`
	// UserID identifies the user the receipt belongs to. This is recorded by
	// the system from the authenticated session; clients must leave it empty
	// when creating receipts.
	UserID string `json:"userId,omitempty" bson:"userId"`
	// CompanyID identifies the company the owning user belongs to.
	CompanyID string `json:"companyId,omitempty" bson:"companyId"`
	// Merchant names the business the purchase was made from.
	Merchant string `json:"merchant" bson:"merchant"`
	// TotalAmount is the receipt total in minor currency units.
	TotalAmount int64 `json:"totalAmount" bson:"totalAmount"`
	// Currency is the ISO 4217 code for TotalAmount.
	Currency string `json:"currency" bson:"currency"`
	// PurchasedAt is when the purchase was made.
	PurchasedAt *time.Time `json:"purchasedAt,omitempty" bson:"purchasedAt"`
	// Category optionally classifies the purchase, e.g. "electronics".
	Category string `json:"category,omitempty" bson:"category"`
	// Notes optionally carries free-form user notes.
	Notes string `json:"notes,omitempty" bson:"notes"`
}

// MarshalJSON amends Receipt instances with type metadata so that clients do
// not need to be concerned with the tedium of doing so.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type Alias Receipt
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "Receipt",
			},
			Alias: (Alias)(r),
		},
	)
}

// ReceiptList is an ordered list of Receipts.
type ReceiptList struct {
	// Items is a slice of Receipts.
	Items []Receipt `json:"items,omitempty"`
}

// MarshalJSON amends ReceiptList instances with type metadata so that clients
// do not need to be concerned with the tedium of doing so.
func (r ReceiptList) MarshalJSON() ([]byte, error) {
	type Alias ReceiptList
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "ReceiptList",
			},
			Alias: (Alias)(r),
		},
	)
}

// Client is the specialized client for managing Receipts with the Kvitto API.
type Client interface {
	// Create creates a new Receipt.
	Create(context.Context, Receipt) (Receipt, error)
	// List returns all of the authenticated user's Receipts.
	List(context.Context) (ReceiptList, error)
	// Get retrieves a single Receipt specified by its identifier.
	Get(ctx context.Context, id string) (Receipt, error)
}

type client struct {
	*restmachinery.BaseClient
}

// NewClient returns a specialized client for managing Receipts.
func NewClient(apiAddress, apiToken string, allowInsecure bool) Client {
	return &client{
		BaseClient: &restmachinery.BaseClient{
			APIAddress: apiAddress,
			APIToken:   apiToken,
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{
						InsecureSkipVerify: allowInsecure,
					},
				},
			},
		},
	}
}

func (c *client) Create(
	ctx context.Context,
	receipt Receipt,
) (Receipt, error) {
	createdReceipt := Receipt{}
	return createdReceipt, c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "v2/receipts",
			AuthHeaders: c.BearerTokenAuthHeaders(),
			ReqBodyObj:  receipt,
			SuccessCode: http.StatusCreated,
			RespObj:     &createdReceipt,
		},
	)
}

func (c *client) List(ctx context.Context) (ReceiptList, error) {
	receiptList := ReceiptList{}
	return receiptList, c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "v2/receipts",
			AuthHeaders: c.BearerTokenAuthHeaders(),
			SuccessCode: http.StatusOK,
			RespObj:     &receiptList,
		},
	)
}

func (c *client) Get(ctx context.Context, id string) (Receipt, error) {
	receipt := Receipt{}
	return receipt, c.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("v2/receipts/%s", id),
			AuthHeaders: c.BearerTokenAuthHeaders(),
			SuccessCode: http.StatusOK,
			RespObj:     &receipt,
		},
	)
}
