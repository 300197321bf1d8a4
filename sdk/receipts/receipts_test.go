package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/stretchr/testify/require"
)

const (
	testAPIAddress          = "localhost:8080"
	testAPIToken            = "11235813213455"
	testClientAllowInsecure = true
)

func TestNewClient(t *testing.T) {
	c := NewClient(testAPIAddress, testAPIToken, testClientAllowInsecure)
	require.IsType(t, &client{}, c)
	require.Equal(t, testAPIAddress, c.(*client).BaseClient.APIAddress)
	require.Equal(t, testAPIToken, c.(*client).BaseClient.APIToken)
}

func TestClientCreate(t *testing.T) {
	testReceipt := Receipt{
		Merchant:    "Fjord Electronics",
		TotalAmount: 129900,
		Currency:    "NOK",
		Category:    "electronics",
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/v2/receipts", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				receipt := Receipt{}
				err := json.NewDecoder(r.Body).Decode(&receipt)
				require.NoError(t, err)
				require.Equal(t, testReceipt.Merchant, receipt.Merchant)
				receipt.ID = "r1"
				bodyBytes, err := json.Marshal(receipt)
				require.NoError(t, err)
				w.WriteHeader(http.StatusCreated)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	c := NewClient(server.URL, testAPIToken, testClientAllowInsecure)
	receipt, err := c.Create(context.Background(), testReceipt)
	require.NoError(t, err)
	require.Equal(t, "r1", receipt.ID)
	require.Equal(t, testReceipt.Merchant, receipt.Merchant)
}

func TestClientList(t *testing.T) {
	testReceiptList := ReceiptList{
		Items: []Receipt{
			{
				ObjectMeta: meta.ObjectMeta{
					ID: "r1",
				},
				Merchant: "Fjord Electronics",
			},
		},
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/v2/receipts", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				bodyBytes, err := json.Marshal(testReceiptList)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	c := NewClient(server.URL, testAPIToken, testClientAllowInsecure)
	receiptList, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, receiptList.Items, 1)
	require.Equal(t, "r1", receiptList.Items[0].ID)
}

func TestClientGet(t *testing.T) {
	testReceipt := Receipt{
		ObjectMeta: meta.ObjectMeta{
			ID: "r1",
		},
		Merchant: "Fjord Electronics",
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/v2/receipts/r1", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				bodyBytes, err := json.Marshal(testReceipt)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	c := NewClient(server.URL, testAPIToken, testClientAllowInsecure)
	receipt, err := c.Get(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, testReceipt.ID, receipt.ID)
	require.Equal(t, testReceipt.Merchant, receipt.Merchant)
}

func TestClientGetNotFound(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				bodyBytes, err := json.Marshal(
					&meta.ErrNotFound{
						Type: "Receipt",
						ID:   "bogus",
					},
				)
				require.NoError(t, err)
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	c := NewClient(server.URL, testAPIToken, testClientAllowInsecure)
	_, err := c.Get(context.Background(), "bogus")
	require.Error(t, err)
	require.IsType(t, &meta.ErrNotFound{}, err)
}
