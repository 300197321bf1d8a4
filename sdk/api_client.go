package sdk

import (
	"github.com/kvittoapp/kvitto/sdk/authn"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/kvittoapp/kvitto/sdk/system"
)

// APIClient is the root of a tree of more specialized API clients within the
// Kvitto SDK.
type APIClient interface {
	// Sessions returns a specialized client for Session management.
	Sessions() authn.SessionsClient
	// Receipts returns a specialized client for Receipt management.
	Receipts() receipts.Client
	// Health returns a specialized client for querying API server health.
	Health() system.HealthClient
}

type apiClient struct {
	sessionsClient authn.SessionsClient
	receiptsClient receipts.Client
	healthClient   system.HealthClient
}

// NewAPIClient returns a Kvitto API client.
func NewAPIClient(apiAddress, apiToken string, allowInsecure bool) APIClient {
	return &apiClient{
		sessionsClient: authn.NewSessionsClient(
			apiAddress,
			apiToken,
			allowInsecure,
		),
		receiptsClient: receipts.NewClient(apiAddress, apiToken, allowInsecure),
		healthClient:   system.NewHealthClient(apiAddress, apiToken, allowInsecure),
	}
}

func (a *apiClient) Sessions() authn.SessionsClient {
	return a.sessionsClient
}

func (a *apiClient) Receipts() receipts.Client {
	return a.receiptsClient
}

func (a *apiClient) Health() system.HealthClient {
	return a.healthClient
}
