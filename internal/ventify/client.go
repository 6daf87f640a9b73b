package ventify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/pkg/config"
	"github.com/arcay3dlabs/storefront/pkg/metrics"
)

const (
	defaultReadTimeout        = 8 * time.Second
	defaultWriteTimeout       = 10 * time.Second
	errorBodyReadLimit  int64 = 1024
	responseReadLimit   int64 = 4 << 20
	apiKeyHeader              = "X-API-Key"
)

// Client talks to the public store endpoints of the Ventify platform.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	accountID    string
	apiKey       string
	readTimeout  time.Duration
	writeTimeout time.Duration
	metrics      *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records every call on the provided instruments.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client from configuration. Missing credentials are not
// an error here; calls that need them fail with an unconfigured Failure.
func NewClient(cfg config.VentifyConfig, opts ...Option) *Client {
	client := &Client{
		httpClient:   &http.Client{},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		accountID:    strings.TrimSpace(cfg.AccountID),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
	if client.readTimeout <= 0 {
		client.readTimeout = defaultReadTimeout
	}
	if client.writeTimeout <= 0 {
		client.writeTimeout = defaultWriteTimeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// ReadConfigured reports whether catalog reads can be issued.
func (c *Client) ReadConfigured() bool {
	return c != nil && c.baseURL != "" && c.accountID != ""
}

// WriteConfigured reports whether sale requests and quotes can be issued.
func (c *Client) WriteConfigured() bool {
	return c.ReadConfigured() && c.apiKey != ""
}

// ListProducts returns the listing in platform order along with the raw data
// array, for callers that forward it untouched.
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]RemoteProduct, json.RawMessage, error) {
	const op = "list_products"
	if !c.ReadConfigured() {
		return nil, nil, unconfigured(op).wrap("product listing unavailable")
	}

	q := url.Values{}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Active != nil {
		q.Set("active", strconv.FormatBool(*params.Active))
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}

	data, err := c.call(ctx, op, http.MethodGet, "products", q, nil, c.readTimeout)
	if err != nil {
		return nil, nil, err
	}

	var products []RemoteProduct
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, nil, (&Failure{Op: op, Message: "decode products: " + err.Error()}).wrap("product listing unavailable")
		}
	}
	return products, data, nil
}

// GetProduct fetches a single product by identifier.
func (c *Client) GetProduct(ctx context.Context, id string) (*RemoteProduct, json.RawMessage, error) {
	const op = "get_product"
	if !c.ReadConfigured() {
		return nil, nil, unconfigured(op).wrap("product lookup unavailable")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, (&Failure{Op: op, Message: "product id is required", StatusHint: http.StatusBadRequest}).wrap("product id is required")
	}

	data, err := c.call(ctx, op, http.MethodGet, "products/"+url.PathEscape(id), nil, nil, c.readTimeout)
	if err != nil {
		return nil, nil, err
	}

	var product RemoteProduct
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, nil, (&Failure{Op: op, Message: "decode product: " + err.Error()}).wrap("product lookup unavailable")
	}
	return &product, data, nil
}

// CreateSaleRequest registers an order with the platform.
func (c *Client) CreateSaleRequest(ctx context.Context, req SaleRequest) (*SaleRequestResult, error) {
	const op = "create_sale_request"
	if !c.WriteConfigured() {
		return nil, unconfigured(op).wrap("sale requests unavailable")
	}

	data, err := c.call(ctx, op, http.MethodPost, "sale-requests", nil, req, c.writeTimeout)
	if err != nil {
		return nil, err
	}

	var result SaleRequestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, (&Failure{Op: op, Message: "decode sale request: " + err.Error()}).wrap("sale request failed")
	}
	return &result, nil
}

// CreateQuote forwards a quote request to the platform.
func (c *Client) CreateQuote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	const op = "create_quote"
	if !c.WriteConfigured() {
		return nil, unconfigured(op).wrap("quotes unavailable")
	}

	data, err := c.call(ctx, op, http.MethodPost, "quotes", nil, req, c.writeTimeout)
	if err != nil {
		return nil, err
	}

	var result QuoteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, (&Failure{Op: op, Message: "decode quote: " + err.Error()}).wrap("quote request failed")
	}
	return &result, nil
}

func unconfigured(op string) *Failure {
	return &Failure{Op: op, Message: "service not configured", Unconfigured: true}
}

// envelope is the {success, data, error} wrapper every endpoint answers with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body any, timeout time.Duration) (json.RawMessage, error) {
	start := time.Now()
	data, failure := c.do(ctx, op, method, path, query, body, timeout)
	c.metrics.Observe(op, outcomeLabel(failure), time.Since(start))
	if failure != nil {
		return nil, failure.wrap(fmt.Sprintf("ventify %s failed", op))
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, timeout time.Duration) (json.RawMessage, *Failure) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Failure{Op: op, Message: "marshal request: " + err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), reader)
	if err != nil {
		return nil, &Failure{Op: op, Message: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &Failure{Op: op, Message: "request timed out", Timeout: true}
		}
		return nil, &Failure{Op: op, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, &Failure{Op: op, Message: errorMessage(raw, resp.Status), StatusHint: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseReadLimit)).Decode(&env); err != nil {
		if isTimeout(ctx, err) {
			return nil, &Failure{Op: op, Message: "request timed out", Timeout: true}
		}
		return nil, &Failure{Op: op, Message: "decode envelope: " + err.Error(), StatusHint: http.StatusBadGateway}
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = "platform reported failure"
		}
		return nil, &Failure{Op: op, Message: msg, StatusHint: http.StatusBadGateway}
	}
	return env.Data, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/api/public/stores/%s/%s", c.baseURL, url.PathEscape(c.accountID), strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func errorMessage(raw []byte, status string) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error) != "" {
		return strings.TrimSpace(env.Error)
	}
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
		return trimmed
	}
	return status
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeLabel(f *Failure) string {
	switch {
	case f == nil:
		return "ok"
	case f.Timeout:
		return "timeout"
	case f.Unconfigured:
		return "unconfigured"
	case f.StatusHint > 0:
		return strconv.Itoa(f.StatusHint)
	default:
		return "error"
	}
}
