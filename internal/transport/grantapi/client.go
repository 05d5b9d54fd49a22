// Package grantapi is the only network-touching surface of the client: typed
// calls to the grant tagging and search service, each response checked by the
// schema validator before it is returned.
package grantapi

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

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/result"
	"github.com/felixrdev/grant-tagging-system/internal/schema"
)

// Endpoint paths of the tagging service.
const (
	PathGrants         = "/api/grants"
	PathTags           = "/api/tags"
	PathBatch          = "/api/grants/batch"
	PathSearch         = "/api/search"
	PathAdvancedSearch = "/api/search/advanced"
	PathHealth         = "/api/health"
)

// Operation names used in errors, logs and metric labels.
const (
	OpListGrants     = "list_grants"
	OpListTags       = "list_tags"
	OpSubmitBatch    = "submit_batch"
	OpSearchByTags   = "search_by_tags"
	OpAdvancedSearch = "advanced_search"
	OpHealth         = "health"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 32 << 20
)

// Generic messages used when the backend does not report its own.
var genericMessages = map[string]string{
	OpListGrants:     "failed to fetch grants",
	OpListTags:       "failed to fetch tags",
	OpSubmitBatch:    "failed to tag grants",
	OpSearchByTags:   "failed to search grants",
	OpAdvancedSearch: "failed to perform advanced search",
	OpHealth:         "backend unhealthy",
}

// Config holds the gateway settings.
type Config struct {
	BaseURL string
	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zap.Logger
	// Registerer receives gateway metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// Client calls the grant service. It holds no state besides its configuration.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	schema    *schema.Validator
	obs       *observer
}

// NewClient creates a gateway client.
func NewClient(cfg *Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("grantapi: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("grantapi: base url must be http or https, got %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	obs, err := newObserver(cfg.Logger, cfg.Registerer)
	if err != nil {
		return nil, err
	}

	return &Client{
		base:      base,
		http:      httpClient,
		userAgent: cfg.UserAgent,
		schema:    schema.New(),
		obs:       obs,
	}, nil
}

// ListGrants returns every grant the backend knows about.
func (c *Client) ListGrants(ctx context.Context) (grants []grant.Grant, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpListGrants, start, err) }()

	body, err := c.do(ctx, OpListGrants, http.MethodGet, PathGrants, nil, nil)
	if err != nil {
		return nil, err
	}
	grants, err = c.schema.DecodeGrants(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListGrants, err)
	}
	return grants, nil
}

// ListTags returns the tag universe in backend order.
func (c *Client) ListTags(ctx context.Context) (tags []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpListTags, start, err) }()

	body, err := c.do(ctx, OpListTags, http.MethodGet, PathTags, nil, nil)
	if err != nil {
		return nil, err
	}
	tags, err = c.schema.DecodeTags(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListTags, err)
	}
	return tags, nil
}

// SubmitBatch sends inputs for tagging and returns the tagged grants.
// The response order is whatever the backend returns; it is not matched to the input order.
func (c *Client) SubmitBatch(ctx context.Context, inputs []grant.Input) (grants []grant.Grant, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpSubmitBatch, start, err) }()

	payload := make([]grant.Input, len(inputs))
	for i, in := range inputs {
		payload[i] = in.Normalize()
	}

	body, err := c.do(ctx, OpSubmitBatch, http.MethodPost, PathBatch, nil, payload)
	if err != nil {
		return nil, err
	}
	grants, err = c.schema.DecodeGrants(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpSubmitBatch, err)
	}
	return grants, nil
}

// SearchByTags runs the simple conjunctive tag search.
func (c *Client) SearchByTags(ctx context.Context, tags []string) (grants []grant.Grant, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpSearchByTags, start, err) }()

	params := url.Values{}
	if err = addFormParam(params, "tags", tags); err != nil {
		return nil, fmt.Errorf("%s: %w", OpSearchByTags, err)
	}

	body, err := c.do(ctx, OpSearchByTags, http.MethodGet, PathSearch, params, nil)
	if err != nil {
		return nil, err
	}
	grants, err = c.schema.DecodeGrants(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpSearchByTags, err)
	}
	return grants, nil
}

// AdvancedSearch resolves free text and tags into matching grants.
func (c *Client) AdvancedSearch(ctx context.Context, q query.Query) (res result.Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpAdvancedSearch, start, err) }()

	params := url.Values{}
	if q.Text() != "" {
		params.Set("q", q.Text())
	}
	if tags := q.Tags(); len(tags) > 0 {
		if err = addFormParam(params, "tags", tags); err != nil {
			return result.Result{}, fmt.Errorf("%s: %w", OpAdvancedSearch, err)
		}
	}
	params.Set("mode", string(q.Mode()))

	body, err := c.do(ctx, OpAdvancedSearch, http.MethodGet, PathAdvancedSearch, params, nil)
	if err != nil {
		return result.Result{}, err
	}
	res, err = c.schema.DecodeSearchResult(body)
	if err != nil {
		return result.Result{}, fmt.Errorf("%s: %w", OpAdvancedSearch, err)
	}
	return res, nil
}

// Health checks the backend health endpoint.
func (c *Client) Health(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpHealth, start, err) }()

	_, err = c.do(ctx, OpHealth, http.MethodGet, PathHealth, nil, nil)
	return err
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(
	ctx context.Context, op, method, path string, params url.Values, payload any,
) ([]byte, error) {
	u := c.base.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Message: genericMessages[op], Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(op, body),
		}
	}
	return body, nil
}

// errorMessage returns the backend's reported error for batch submissions,
// or the generic message for everything else.
func errorMessage(op string, body []byte) string {
	if op == OpSubmitBatch {
		var parsed struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			return parsed.Error
		}
	}
	return genericMessages[op]
}

// addFormParam encodes values as an OpenAPI form-style, non-exploded
// parameter (name=a,b,c) and merges it into params.
func addFormParam(params url.Values, name string, values []string) error {
	frag, err := runtime.StyleParamWithLocation("form", false, name, runtime.ParamLocationQuery, values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return nil
}
