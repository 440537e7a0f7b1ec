// Package client talks to the build order simulation backend over HTTP.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bodash/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	apiPrefix    = "/api"
	maxErrorBody = 4 << 10
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d (%s %s)", e.StatusCode, e.Method, e.Path)
}

// Client is a backend API client. Unary calls use a timeout; the optimize
// stream is bounded only by its context.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	log     *slog.Logger
}

// New returns a client for baseURL. A non-positive timeout means 60s.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		stream:  &http.Client{Transport: transport},
		log:     log,
	}
}

// SimulateRequest selects a build order by saved filename or inline payload.
type SimulateRequest struct {
	Filename   string            `json:"filename,omitempty"`
	BuildOrder *model.BuildOrder `json:"build_order,omitempty"`
	Duration   int               `json:"duration"`
}

// CompareRequest names the saved build orders to simulate side by side.
type CompareRequest struct {
	Filenames []string `json:"filenames"`
	Duration  int      `json:"duration"`
}

// OptimizeRequest starts an optimizer run.
type OptimizeRequest struct {
	Goal        string          `json:"goal"`
	TargetTime  int             `json:"target_time"`
	Duration    int             `json:"duration"`
	Generations int             `json:"generations"`
	PopSize     int             `json:"pop_size"`
	MapConfig   model.MapConfig `json:"map_config"`
	StartFrom   *string         `json:"start_from"`
}

type compareResponse struct {
	Results []model.SimulationResult `json:"results"`
}

type buildOrdersResponse struct {
	BuildOrders []model.BuildOrderFile `json:"build_orders"`
}

type saveRequest struct {
	BuildOrder model.BuildOrder `json:"build_order"`
	Filename   string           `json:"filename"`
}

type saveResponse struct {
	Saved string `json:"saved"`
}

// FactionResult reports the faction now active on the backend.
type FactionResult struct {
	Faction   string `json:"faction"`
	UnitCount int    `json:"unit_count"`
}

// Simulate runs one build order.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (*model.SimulationResult, error) {
	var out model.SimulationResult
	if err := c.do(ctx, http.MethodPost, "/simulate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare simulates every named build order and returns results in request order.
func (c *Client) Compare(ctx context.Context, req CompareRequest) ([]model.SimulationResult, error) {
	var out compareResponse
	if err := c.do(ctx, http.MethodPost, "/compare", req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Optimize starts an optimizer run and returns the event stream body. The
// caller must close it; cancelling ctx aborts the read.
func (c *Client) Optimize(ctx context.Context, req OptimizeRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode optimize request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/optimize"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := checkStatus(http.MethodPost, "/optimize", resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	c.log.Debug("optimize stream opened", "goal", req.Goal, "generations", req.Generations)
	return resp.Body, nil
}

// Units fetches the unit catalog of the active faction.
func (c *Client) Units(ctx context.Context) (*model.Catalog, error) {
	var out model.Catalog
	if err := c.do(ctx, http.MethodGet, "/units", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildOrders lists the saved build orders.
func (c *Client) BuildOrders(ctx context.Context) ([]model.BuildOrderFile, error) {
	var out buildOrdersResponse
	if err := c.do(ctx, http.MethodGet, "/build-orders", nil, &out); err != nil {
		return nil, err
	}
	return out.BuildOrders, nil
}

// BuildOrder loads one saved build order.
func (c *Client) BuildOrder(ctx context.Context, filename string) (*model.BuildOrder, error) {
	var out model.BuildOrder
	if err := c.do(ctx, http.MethodGet, "/build-orders/"+url.PathEscape(filename), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Save stores bo under filename and returns the name the backend used.
func (c *Client) Save(ctx context.Context, bo model.BuildOrder, filename string) (string, error) {
	var out saveResponse
	if err := c.do(ctx, http.MethodPost, "/save", saveRequest{BuildOrder: bo, Filename: filename}, &out); err != nil {
		return "", err
	}
	return out.Saved, nil
}

// Faction switches the backend's active faction.
func (c *Client) Faction(ctx context.Context, faction string) (*FactionResult, error) {
	var out FactionResult
	if err := c.do(ctx, http.MethodPost, "/faction", map[string]string{"faction": faction}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + apiPrefix + path
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(method, path, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	c.log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return nil
}

func checkStatus(method, path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
