package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

const defaultRequestTimeout = 15 * time.Second

// Item is one cart line. Meta carries opaque display payload end to end.
type Item struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity int            `json:"quantity"`
	Image    string         `json:"image,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Cart is the server's cart record as seen by the SDK.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	SessionID *string   `json:"session_id,omitempty"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key is the active cart address. The user id wins whenever it is known;
// reads and deletes send exactly one of the two.
type Key struct {
	SessionID string
	UserID    string
}

// RemoteStore is the surface the cache and listener mutate carts through.
type RemoteStore interface {
	Fetch(ctx context.Context, key Key) (*Cart, error)
	Save(ctx context.Context, key Key, items []Item) error
	Merge(ctx context.Context, sessionID, userID string) error
	Clear(ctx context.Context, key Key) error
}

// Client talks to the cart-sync HTTP endpoint. The base URL is injected so
// deployments and tests choose their own origin.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

// NewClient builds a cart-sync API client.
func NewClient(baseURL string, httpClient *http.Client, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{baseURL: base, http: httpClient, logg: logg}, nil
}

type cartEnvelope struct {
	Data struct {
		Cart *Cart `json:"cart"`
	} `json:"data"`
}

// Fetch loads the cart for the active key. A missing cart, an empty
// response, or a malformed payload all come back as (nil, nil): absence is
// an empty cart, never an error.
func (c *Client) Fetch(ctx context.Context, key Key) (*Cart, error) {
	query := url.Values{}
	if key.UserID != "" {
		query.Set("user_id", key.UserID)
	} else {
		query.Set("session_id", key.SessionID)
	}

	body, err := c.do(ctx, http.MethodGet, "/cart-sync", query, nil)
	if err != nil {
		return nil, err
	}

	var envelope cartEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil
	}
	return envelope.Data.Cart, nil
}

// Save replaces the cart's item list. The session id is always sent; the
// user id rides along when known so the server can bind both keys to one
// record without a separate merge.
func (c *Client) Save(ctx context.Context, key Key, items []Item) error {
	query := url.Values{}
	query.Set("session_id", key.SessionID)
	if key.UserID != "" {
		query.Set("user_id", key.UserID)
	}

	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode items")
	}

	_, err = c.do(ctx, http.MethodPost, "/cart-sync", query, payload)
	return err
}

// Merge folds the anonymous cart into the authenticated cart. Called
// exactly once per sign-in transition, before the active key switches.
func (c *Client) Merge(ctx context.Context, sessionID, userID string) error {
	payload, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    userID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode merge request")
	}

	_, err = c.do(ctx, http.MethodPatch, "/cart-sync", nil, payload)
	return err
}

// Clear removes the cart record for the active key.
func (c *Client) Clear(ctx context.Context, key Key) error {
	query := url.Values{}
	if key.UserID != "" {
		query.Set("user_id", key.UserID)
	} else {
		query.Set("session_id", key.SessionID)
	}

	_, err := c.do(ctx, http.MethodDelete, "/cart-sync", query, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode))
	}
	return body, nil
}
