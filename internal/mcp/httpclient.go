package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
)

// HTTPClient implements DataSource by calling the setops REST API. Used for
// remote MCP mode where the binary runs locally (stdio) but state lives on
// the server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. The API
// key is sent on mutating calls.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func (c *HTTPClient) Schedule(ctx context.Context, gym string) (*models.GymSchedule, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/schedules/"+url.PathEscape(strings.ToUpper(gym)), nil, nil)
	if err != nil {
		return nil, err
	}
	var s models.GymSchedule
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("httpclient: decode schedule: %w", err)
	}
	return &s, nil
}

func (c *HTTPClient) Unrecognized(ctx context.Context) (map[string][]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/unrecognized", nil, nil)
	if err != nil {
		return nil, err
	}
	var out map[string][]string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode unrecognized: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) AssignWallMapping(ctx context.Context, gym, label string, d models.Discipline) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/mappings", nil, map[string]string{
		"gym":   gym,
		"label": label,
		"type":  string(d),
	})
	return err
}

func (c *HTTPClient) ShiftAnalysis(ctx context.Context, gym string, top, minShifts int) (*ShiftAnalysis, error) {
	params := url.Values{}
	if gym != "" {
		params.Set("gym", gym)
	}
	params.Set("top", strconv.Itoa(top))
	params.Set("min_shifts", strconv.Itoa(minShifts))

	body, err := c.do(ctx, http.MethodGet, "/api/v1/analysis", params, nil)
	if err != nil {
		return nil, err
	}
	var out ShiftAnalysis
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode analysis: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) WallTargets(ctx context.Context, gym string) (*GymTargets, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/targets/"+url.PathEscape(strings.ToUpper(gym)), nil, nil)
	if err != nil {
		return nil, err
	}
	var out GymTargets
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode targets: %w", err)
	}
	return &out, nil
}
