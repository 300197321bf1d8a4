package system

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"

	"github.com/kvittoapp/kvitto/sdk/internal/restmachinery"
	"github.com/kvittoapp/kvitto/sdk/meta"
)

// HealthInfo is an informational snapshot of API server health, surfaced to
// operators only. Nothing about it is load-bearing for clients.
type HealthInfo struct {
	// Status summarizes overall server health, e.g. "ok".
	Status string `json:"status"`
	// Auth identifies the authentication mode the server is operating with,
	// e.g. "oidc" or "disabled".
	Auth string `json:"auth"`
	// Message optionally elaborates on Status.
	Message string `json:"message,omitempty"`
}

// MarshalJSON amends HealthInfo instances with type metadata so that clients
// do not need to be concerned with the tedium of doing so.
func (h HealthInfo) MarshalJSON() ([]byte, error) {
	type Alias HealthInfo
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "HealthInfo",
			},
			Alias: (Alias)(h),
		},
	)
}

// HealthClient is the specialized client for querying Kvitto API server
// health.
type HealthClient interface {
	// Get returns an informational snapshot of API server health.
	Get(context.Context) (HealthInfo, error)
}

type healthClient struct {
	*restmachinery.BaseClient
}

// NewHealthClient returns a specialized client for querying Kvitto API server
// health.
func NewHealthClient(
	apiAddress string,
	apiToken string,
	allowInsecure bool,
) HealthClient {
	return &healthClient{
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

func (h *healthClient) Get(ctx context.Context) (HealthInfo, error) {
	healthInfo := HealthInfo{}
	return healthInfo, h.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "healthz",
			SuccessCode: http.StatusOK,
			RespObj:     &healthInfo,
		},
	)
}
