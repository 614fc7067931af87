package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// File is one export queued for upload.
type File struct {
	Name string
	Data []byte
}

// Result is the part of the server's upload response the client reports.
type Result struct {
	Climbs       int                 `json:"climbs"`
	Unrecognized map[string][]string `json:"unrecognized"`
}

// Client sends exports to the setops server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	// backoff is the first retry delay; it doubles per attempt.
	backoff time.Duration
}

// NewClient creates a new HTTP client for the setops server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Send POSTs files as one multipart batch to the upload endpoint. gym labels
// performance exports whose names carry no gym code. Retries up to 3 times
// with exponential backoff on failure.
func (c *Client) Send(ctx context.Context, files []File, gym string) (*Result, error) {
	body, contentType, err := encode(files, gym)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/upload", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building upload request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var res Result
			if err := json.Unmarshal(data, &res); err != nil {
				return nil, fmt.Errorf("decoding upload response: %w", err)
			}
			return &res, nil
		case resp.StatusCode < http.StatusInternalServerError:
			// Client errors will not improve on retry.
			return nil, fmt.Errorf("upload rejected (status %d): %s", resp.StatusCode, bytes.TrimSpace(data))
		}
		lastErr = fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func encode(files []File, gym string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if gym != "" {
		if err := mw.WriteField("gym", gym); err != nil {
			return nil, "", fmt.Errorf("writing gym field: %w", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("adding %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("adding %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
