package restmachinery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/pkg/errors"
)

// OutboundRequest models all aspects of an outbound API call in a succinct
// fashion.
type OutboundRequest struct {
	// Method specifies the HTTP method to be used.
	Method string
	// Path specifies a path (relative to the root of the API) to be used.
	Path string
	// QueryParams optionally specifies any URL query parameters to be used.
	QueryParams map[string]string
	// AuthHeaders optionally specifies any authentication headers to be used.
	AuthHeaders map[string]string
	// Headers optionally specifies any miscellaneous HTTP headers to be used.
	Headers map[string]string
	// ReqBodyObj optionally provides an object that can be marshaled to create
	// the body of the HTTP request.
	ReqBodyObj interface{}
	// SuccessCode specifies what HTTP response code should indicate a
	// successful API call.
	SuccessCode int
	// RespObj optionally provides an object into which the HTTP response body
	// can be unmarshaled.
	RespObj interface{}
}

// BaseClient provides "API machinery" used by all the specialized API
// clients. Its various functions remove the tedium from common API-related
// operations like managing authentication headers, encoding request bodies,
// interpreting response codes, decoding response bodies, and more.
type BaseClient struct {
	APIAddress string
	APIToken   string
	HTTPClient *http.Client
}

// BasicAuthHeaders, given a username and password, returns a
// map[string]string populated with a Basic Auth header.
func (b *BaseClient) BasicAuthHeaders(
	username string,
	password string,
) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf(
			"Basic %s",
			base64.StdEncoding.EncodeToString(
				[]byte(fmt.Sprintf("%s:%s", username, password)),
			),
		),
	}
}

// BearerTokenAuthHeaders returns a map[string]string populated with an
// authentication header that makes use of the client's bearer token.
func (b *BaseClient) BearerTokenAuthHeaders() map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", b.APIToken),
	}
}

// ExecuteRequest prepares and executes an HTTP request described by the
// provided OutboundRequest, interprets the HTTP response code, and decodes
// the response body into a caller-supplied type.
func (b *BaseClient) ExecuteRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if req.RespObj != nil {
		respBodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return &meta.ErrConnection{
				Malformed: true,
				Reason:    errors.Wrap(err, "error reading response body").Error(),
			}
		}
		if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
			return &meta.ErrConnection{
				Malformed: true,
				Reason: errors.Wrap(
					err,
					"error unmarshaling response body",
				).Error(),
			}
		}
	}
	return nil
}

// SubmitRequest prepares and executes an HTTP request described by the
// provided OutboundRequest and returns the raw HTTP response. This is a
// lower-level function than ExecuteRequest(). It is used by ExecuteRequest(),
// but is also suitable for use in cases where specialized response handling
// is required.
func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequest(
		req.Method,
		fmt.Sprintf("%s/%s", b.APIAddress, req.Path),
		reqBodyReader,
	)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	r = r.WithContext(ctx)
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	for k, v := range req.AuthHeaders {
		r.Header.Add(k, v)
	}
	for k, v := range req.Headers {
		r.Header.Add(k, v)
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		return nil, &meta.ErrConnection{
			Reason: err.Error(),
		}
	}

	if (req.SuccessCode == 0 && resp.StatusCode != http.StatusOK) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		// The HTTP response code hints at what sort of error might be in the
		// body of the response
		var apiErr error
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			apiErr = &meta.ErrAuthentication{}
		case http.StatusBadRequest:
			apiErr = &meta.ErrBadRequest{}
		case http.StatusNotFound:
			apiErr = &meta.ErrNotFound{}
		case http.StatusConflict:
			apiErr = &meta.ErrConflict{}
		case http.StatusNotImplemented:
			apiErr = &meta.ErrNotSupported{}
		case http.StatusInternalServerError:
			apiErr = &meta.ErrInternalServer{}
		default:
			return nil, &meta.ErrConnection{
				Malformed: true,
				Reason: fmt.Sprintf(
					"received %d from API server",
					resp.StatusCode,
				),
			}
		}
		bodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, &meta.ErrConnection{
				Malformed: true,
				Reason: errors.Wrap(
					err,
					"error reading error response body",
				).Error(),
			}
		}
		if err = json.Unmarshal(bodyBytes, apiErr); err != nil {
			return nil, &meta.ErrConnection{
				Malformed: true,
				Reason: errors.Wrap(
					err,
					"error unmarshaling error response body",
				).Error(),
			}
		}
		return nil, apiErr
	}
	return resp, nil
}
