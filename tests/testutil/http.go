package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIResponse is a recorded response in the API envelope
type APIResponse struct {
	Recorder *httptest.ResponseRecorder
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

// Status is the HTTP status code
func (r *APIResponse) Status() int {
	return r.Recorder.Code
}

// ErrorCode is the error code or "" on success
func (r *APIResponse) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// APIClient sends JSON requests to an http.Handler with a bearer token
type APIClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

// NewAPIClient returns a client for handler. An empty token sends anonymous
// requests.
func NewAPIClient(t *testing.T, handler http.Handler, token string) *APIClient {
	return &APIClient{t: t, handler: handler, token: token}
}

// Do sends the request and decodes the envelope when the body is JSON
func (c *APIClient) Do(method, path string, body any) *APIResponse {
	c.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(c.t, err, "Failed to marshal request body")
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	resp := &APIResponse{Recorder: rec}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), resp), rec.Body.String())
	}
	return resp
}

// Get is Do with GET
func (c *APIClient) Get(path string) *APIResponse {
	c.t.Helper()
	return c.Do(http.MethodGet, path, nil)
}

// Post is Do with POST
func (c *APIClient) Post(path string, body any) *APIResponse {
	c.t.Helper()
	return c.Do(http.MethodPost, path, body)
}

// Delete is Do with DELETE
func (c *APIClient) Delete(path string) *APIResponse {
	c.t.Helper()
	return c.Do(http.MethodDelete, path, nil)
}

// RequireStatus fails the test unless the response has status
func RequireStatus(t *testing.T, resp *APIResponse, status int) {
	t.Helper()
	require.Equal(t, status, resp.Status(), resp.Recorder.Body.String())
}

// DecodeData decodes the data field into T
func DecodeData[T any](t *testing.T, resp *APIResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), string(resp.Data))
	return out
}

// AssertError asserts an error envelope with status and code
func AssertError(t *testing.T, resp *APIResponse, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.Status(), resp.Recorder.Body.String())
	assert.False(t, resp.Success)
	assert.Equal(t, code, resp.ErrorCode())
}

// AssertDecimal compares decimal strings numerically, so "50" equals "50.00"
func AssertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
