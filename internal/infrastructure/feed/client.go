// Package feed adapts the external store's REST order API to order.Feed.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	ordersPath      = "/wp-json/wc/v3/orders"
	maxResponseSize = 10 * 1024 * 1024
	maxPerPage      = 100
	totalPagesHdr   = "X-WP-TotalPages"
)

// ErrNotConfigured is returned when the credential provider has nothing to offer
var ErrNotConfigured = inventory.ErrFeedNotConfigured

var errRemoteNotFound = errors.New("feed: remote resource not found")

// Client implements order.Feed over HTTP with basic authentication
type Client struct {
	creds      CredentialProvider
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

// NewClient creates a feed client. Zero options get sensible defaults.
func NewClient(creds CredentialProvider, opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.PerPage <= 0 || opts.PerPage > maxPerPage {
		opts.PerPage = maxPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     logger.Named("feed"),
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// FetchOrders returns the orders matching filter, oldest first.
// A zero filter.Page walks every page up to the configured page limit;
// a positive one fetches only that page.
func (c *Client) FetchOrders(ctx context.Context, filter order.FeedFilter) ([]order.Order, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	perPage := filter.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = c.opts.PerPage
	}

	first, last := 1, c.opts.MaxPages
	if filter.Page > 0 {
		first, last = filter.Page, filter.Page
	}

	var raw []storeOrder
	for page := first; page <= last; page++ {
		var batch []storeOrder
		header, err := c.get(ctx, creds, ordersPath, listQuery(filter, page, perPage), &batch)
		if err != nil {
			return nil, err
		}
		raw = append(raw, batch...)

		if len(batch) < perPage {
			break
		}
		if total, err := strconv.Atoi(header.Get(totalPagesHdr)); err == nil && page >= total {
			break
		}
		if page == last && filter.Page == 0 {
			c.logger.Warn("Order feed page limit reached, results truncated",
				zap.Int("max_pages", c.opts.MaxPages),
				zap.Int("per_page", perPage),
			)
		}
	}
	return normalize(raw), nil
}

// FetchOrder returns one order by its store id
func (c *Client) FetchOrder(ctx context.Context, id string) (*order.Order, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, shared.ErrNotFound
	}
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	var raw storeOrder
	if _, err := c.get(ctx, creds, ordersPath+"/"+id, nil, &raw); err != nil {
		if errors.Is(err, errRemoteNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	o := raw.toDomain()
	if o.Status == order.StatusCheckoutDraft {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func listQuery(filter order.FeedFilter, page, perPage int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("orderby", "date")
	q.Set("order", "asc")
	if filter.After != nil {
		q.Set("after", filter.After.UTC().Format(time.RFC3339))
	}
	if filter.Before != nil {
		q.Set("before", filter.Before.UTC().Format(time.RFC3339))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q.Set("status", strings.Join(statuses, ","))
	} else {
		q.Set("status", "any")
	}
	return q
}

// normalize drops checkout drafts and repeated ids, keeping the first copy
func normalize(raw []storeOrder) []order.Order {
	seen := make(map[int64]bool, len(raw))
	out := make([]order.Order, 0, len(raw))
	for _, r := range raw {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		o := r.toDomain()
		if o.Status == order.StatusCheckoutDraft {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (c *Client) get(ctx context.Context, creds Credentials, path string, query url.Values, dst any) (http.Header, error) {
	endpoint := creds.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", order.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", order.ErrFeedUnavailable, err)
	}
	c.logger.Debug("Order feed request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errRemoteNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", order.ErrFeedUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", order.ErrFeedUnavailable, err)
	}
	return resp.Header, nil
}

var _ order.Feed = (*Client)(nil)
