package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller issues one API call and normalizes the outcome.
type Caller interface {
	Call(ctx context.Context, endpoint, method string, body any) Envelope
}

// Client is the single entry point for talking to the Placify service.
type Client struct {
	baseURL   string
	doer      Doer
	userAgent string
}

// NewClient returns a Client that sends requests for baseURL through doer.
func NewClient(baseURL string, doer Doer, userAgent string) *Client {
	return &Client{baseURL: baseURL, doer: doer, userAgent: userAgent}
}

// Call sends a request to endpoint and returns its normalized outcome.
// body, when non-nil, is sent as JSON. An empty method means GET.
//
// Transport errors, non-JSON responses and responses that do not match
// the endpoint's schema all become Fail(NetworkError). A JSON object with
// success:false becomes Fail(message) regardless of the HTTP status.
func (c *Client) Call(ctx context.Context, endpoint, method string, body any) Envelope {
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Fail(NetworkError)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return Fail(NetworkError)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return Fail(NetworkError)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail(NetworkError)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Fail(NetworkError)
	}

	if msg, ok := businessFailure(raw); ok {
		env := Fail(msg)
		env.Status = resp.StatusCode
		env.Raw = raw
		return env
	}

	if err := validateResponse(endpoint, parsed); err != nil {
		env := Fail(NetworkError)
		env.Status = resp.StatusCode
		return env
	}

	return Ok(resp.StatusCode, raw)
}
