package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// Client carries the explicit HTTP configuration shared by the three stages of a run.
type Client struct {
	cfg  types.ClientConfig
	http *http.Client
}

// NewClient builds a client with its own transport from cfg.
func NewClient(cfg types.ClientConfig) *Client {
	return NewClientWithHTTP(cfg, tool.NewHTTPClient(cfg))
}

// NewClientWithHTTP uses hc as-is; cfg.Timeout is not applied to it.
func NewClientWithHTTP(cfg types.ClientConfig, hc *http.Client) *Client {
	if cfg.MultipartContentType == "" {
		cfg.MultipartContentType = tool.DefaultMultipartContentType
	}
	return &Client{cfg: cfg, http: hc}
}

func (c *Client) Config() types.ClientConfig {
	return c.cfg
}

func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// do sends req and returns the status code and the full response body.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		tool.DefaultLogger.Warnf("Failed to read response body: %v", readErr)
	} else if len(body) > 0 {
		tool.DefaultLogger.Debugf("%s %s response (%d): %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}
	return resp.StatusCode, body, nil
}

// postJSON marshals payload with sonic and POSTs it.
func (c *Client) postJSON(ctx context.Context, url string, payload any) (int, []byte, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
