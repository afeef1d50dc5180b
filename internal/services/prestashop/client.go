package prestashop

import (
	"bytes"
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

	"prestaboost/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// Timeouts are applied per call. Listing calls get the long timeout, single
// record lookups the detail timeout, existence probes the short one.
type Timeouts struct {
	List      time.Duration
	Detail    time.Duration
	Probe     time.Duration
	Secondary time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		List:      30 * time.Second,
		Detail:    10 * time.Second,
		Probe:     5 * time.Second,
		Secondary: 10 * time.Second,
	}
}

// Client talks to one shop's PrestaShop webservice. It never retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeouts   Timeouts
	logger     *logger.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeouts(t Timeouts) ClientOption {
	return func(c *Client) { c.timeouts = t }
}

func NewClient(baseURL, apiKey string, logger *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		timeouts:   DefaultTimeouts(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Timeouts() Timeouts {
	return c.timeouts
}

// Get performs GET {base}/api/{path} with output_format=JSON and decodes the
// body into out. An empty body or a bare [] (the webservice's "no results")
// leaves out untouched.
func (c *Client) Get(ctx context.Context, path string, query url.Values, timeout time.Duration, out interface{}) error {
	path = strings.TrimLeft(path, "/")
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("output_format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+path+"?"+q.Encode(), nil)
	if err != nil {
		return &RemoteError{Path: path, Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return &RemoteError{Path: path, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := KindTransport
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return &RemoteError{Path: path, Kind: kind, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("prestashop request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return &RemoteError{Path: path, Kind: KindStatus, Status: resp.StatusCode, Body: snippet}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) || out == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &RemoteError{Path: path, Kind: KindDecode, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// ListProducts fetches the catalog with the fields needed for a stock snapshot.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var resp productsResponse
	q := url.Values{"display": {"[id,reference,name,id_category_default]"}}
	if err := c.Get(ctx, "products", q, c.timeouts.List, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) ListStockAvailables(ctx context.Context) ([]StockAvailable, error) {
	var resp stockAvailablesResponse
	q := url.Values{"display": {"[id,id_product,quantity]"}}
	if err := c.Get(ctx, "stock_availables", q, c.timeouts.List, &resp); err != nil {
		return nil, err
	}
	return resp.StockAvailables, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp categoriesResponse
	q := url.Values{"display": {"[id,name]"}}
	if err := c.Get(ctx, "categories", q, c.timeouts.List, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// ListOrderIDsSince returns ids of orders added on or after the given day,
// highest id first.
func (c *Client) ListOrderIDsSince(ctx context.Context, since time.Time) ([]int, error) {
	var resp ordersResponse
	q := url.Values{
		"display":          {"[id]"},
		"filter[date_add]": {"[" + since.Format("2006-01-02") + ",]"},
		"sort":             {"[id_DESC]"},
	}
	if err := c.Get(ctx, "orders", q, c.timeouts.List, &resp); err != nil {
		return nil, err
	}
	return orderIDs(resp.Orders), nil
}

// LatestOrderIDs asks the webservice for the highest order ids directly.
func (c *Client) LatestOrderIDs(ctx context.Context, limit int) ([]int, error) {
	var resp ordersResponse
	q := url.Values{
		"display": {"[id]"},
		"limit":   {strconv.Itoa(limit)},
		"sort":    {"[id_DESC]"},
	}
	if err := c.Get(ctx, "orders", q, c.timeouts.Detail, &resp); err != nil {
		return nil, err
	}
	return orderIDs(resp.Orders), nil
}

// GetOrder fetches one order with its rows. A missing order is (nil, nil).
func (c *Client) GetOrder(ctx context.Context, id int) (*Order, error) {
	var resp orderResponse
	if err := c.Get(ctx, "orders/"+strconv.Itoa(id), nil, c.timeouts.Detail, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// OrderExists probes an order id with the short timeout. Any failure,
// including a 404, counts as absent; the error is returned for logging.
func (c *Client) OrderExists(ctx context.Context, id int) (bool, error) {
	var resp orderResponse
	if err := c.Get(ctx, "orders/"+strconv.Itoa(id), nil, c.timeouts.Probe, &resp); err != nil {
		return false, err
	}
	return resp.Order != nil && resp.Order.ID.Int() > 0, nil
}

func (c *Client) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var resp customerResponse
	if err := c.Get(ctx, "customers/"+strconv.Itoa(id), nil, c.timeouts.Secondary, &resp); err != nil {
		return nil, err
	}
	return resp.Customer, nil
}

func (c *Client) GetAddress(ctx context.Context, id int) (*Address, error) {
	var resp addressResponse
	if err := c.Get(ctx, "addresses/"+strconv.Itoa(id), nil, c.timeouts.Secondary, &resp); err != nil {
		return nil, err
	}
	return resp.Address, nil
}

// GetWholesalePrice returns the product's cost price, or nil when the shop
// has none recorded (missing, non-numeric or not positive).
func (c *Client) GetWholesalePrice(ctx context.Context, productID int) (*decimal.Decimal, error) {
	var resp productPriceResponse
	q := url.Values{"display": {"[wholesale_price]"}}
	if err := c.Get(ctx, "products/"+strconv.Itoa(productID), q, c.timeouts.Probe, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, nil
	}
	price, ok := ParseDecimal(resp.Product.WholesalePrice)
	if !ok || !price.IsPositive() {
		return nil, nil
	}
	return &price, nil
}

func (c *Client) ListShops(ctx context.Context) ([]Shop, error) {
	var resp shopsResponse
	q := url.Values{"display": {"full"}}
	if err := c.Get(ctx, "shops", q, c.timeouts.List, &resp); err != nil {
		return nil, err
	}
	return resp.Shops, nil
}

func orderIDs(refs []OrderRef) []int {
	ids := make([]int, 0, len(refs))
	for _, r := range refs {
		if id := r.ID.Int(); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
