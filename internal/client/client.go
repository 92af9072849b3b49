// Package client talks to the dashboard API on behalf of a signed-in user.
//
// IdentityProvider implements authstate.IdentityProvider over the server's
// OAuth2 token endpoint; ProfileStore and API reuse its tokens for every
// authenticated call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	TokenPath    = "/api/v1/auth/token"
	LogoutPath   = "/api/v1/auth/logout"
	ProfilesPath = "/api/v1/profiles/"
)

// APIError is a non-2xx answer from the dashboard API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// requester issues JSON requests against baseURL, authenticating with
// tokens when set.
type requester struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

func newRequester(baseURL string, tokens oauth2.TokenSource, httpClient *http.Client) requester {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return requester{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

func (r requester) client() *http.Client {
	if r.tokens == nil {
		return r.httpClient
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, r.httpClient)
	c := oauth2.NewClient(ctx, r.tokens)
	c.Timeout = r.httpClient.Timeout
	return c
}

func (r requester) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := r.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send returns the response of a successful request; the caller closes the
// body. Non-2xx answers come back as *APIError.
func (r requester) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload map[string]any
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		for _, k := range []string{"error_description", "error", "message"} {
			if s, ok := payload[k].(string); ok && s != "" {
				msg = s
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
