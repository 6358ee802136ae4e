// Package testutil holds helpers shared by HTTP-level tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServer wraps an httptest.Server with JSON request helpers.
type TestServer struct {
	*httptest.Server
	t *testing.T

	// Token, when set, is sent as the Authorization header.
	Token string
}

// NewTestServer starts a server for handler and closes it when the test ends.
func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &TestServer{Server: server, t: t}
}

// WithToken returns a copy of ts that sends token on every request.
func (ts *TestServer) WithToken(token string) *TestServer {
	clone := *ts
	clone.Token = token
	return &clone
}

// Do sends a request with an optional JSON body. A []byte body is sent as is.
func (ts *TestServer) Do(method, path string, body interface{}) *http.Response {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(ts.t, err)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.URL+path, bodyReader)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.Token != "" {
		req.Header.Set("Authorization", ts.Token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *TestServer) GET(path string) *http.Response {
	return ts.Do(http.MethodGet, path, nil)
}

func (ts *TestServer) POST(path string, body interface{}) *http.Response {
	return ts.Do(http.MethodPost, path, body)
}

func (ts *TestServer) PUT(path string, body interface{}) *http.Response {
	return ts.Do(http.MethodPut, path, body)
}

func (ts *TestServer) DELETE(path string) *http.Response {
	return ts.Do(http.MethodDelete, path, nil)
}

// AssertJSONResponse checks the status code and decodes the body into target.
func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, target interface{}) {
	t.Helper()
	require.Equal(t, expectedStatus, resp.StatusCode)

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
}

// AssertErrorResponse checks the status code and the {"error": ...} body.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()
	require.Equal(t, expectedStatus, resp.StatusCode)

	var errorResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errorResp))
	require.Equal(t, map[string]interface{}{"error": expectedMessage}, errorResp)
}
