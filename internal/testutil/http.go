package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// inProcessTransport answers requests by calling a handler directly, so API
// tests run without opening a listener.
type inProcessTransport struct {
	handler http.Handler
}

func (t inProcessTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	res := rec.Result()
	res.Request = req
	return res, nil
}

func NewInProcessClient(handler http.Handler) *http.Client {
	return &http.Client{Transport: inProcessTransport{handler: handler}}
}

// JSONRequest builds a request for the in-process host. A []byte payload is
// sent as is, nil sends an empty body and anything else is JSON encoded.
func JSONRequest(t testing.TB, method, path string, payload any) *http.Request {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case nil:
	case []byte:
		body = p
	default:
		var err error
		if body, err = json.Marshal(p); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, "http://in-process"+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ReadBody drains and closes the response body, trimming surrounding space.
func ReadBody(t testing.TB, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(bytes.TrimSpace(data))
}
