package authstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the identity provider backend. One client is created
// per inbound request and bound to the request's credential store.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client bound to the provider backend URL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   &Store{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthStore returns the credential store owned by this client.
func (c *Client) AuthStore() *Store {
	return c.store
}

// Collection scopes provider operations to a named record collection.
func (c *Client) Collection(name string) *Collection {
	return &Collection{client: c, name: name}
}

// Collection is a handle on one provider collection.
type Collection struct {
	client *Client
	name   string
}

// authRefreshResponse is the provider's refresh payload.
type authRefreshResponse struct {
	Token  string  `json:"token"`
	Record *Record `json:"record"`
}

// AuthRefresh exchanges the stored token for a fresh one and updates the
// store on success. A 401/403 comes back as *APIError (see IsAuthError);
// transport failures come back as plain wrapped errors and leave the
// store untouched.
func (col *Collection) AuthRefresh(ctx context.Context) (*Record, error) {
	token := col.client.store.Token()
	if token == "" {
		return nil, ErrMissingToken
	}

	url := fmt.Sprintf("%s/api/collections/%s/auth-refresh", col.client.baseURL, col.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("authstore: build refresh request: %w", err)
	}
	req.Header.Set("Authorization", token)

	resp, err := col.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authstore: refresh call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		// Best effort: the body may not be JSON at all.
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Message
		}
		return nil, apiErr
	}

	var payload authRefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("authstore: decode refresh response: %w", err)
	}

	col.client.store.Save(payload.Token, payload.Record)
	return payload.Record, nil
}
