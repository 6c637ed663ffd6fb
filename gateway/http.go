package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPClient talks to a locally reachable presentation-engine endpoint
// over JSON request/response calls.
type HTTPClient struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates a gateway client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read %s: %w", req.URL.Path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: parse %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *HTTPClient) Objects(ctx context.Context) ([]ObjectRef, error) {
	var resp struct {
		Objects []ObjectRef `json:"objects"`
	}
	if err := c.get(ctx, "/objects", &resp); err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

func (c *HTTPClient) LocalPlayerAddress(ctx context.Context) (uint64, bool, error) {
	var resp struct {
		Present bool   `json:"present"`
		Address uint64 `json:"address"`
	}
	if err := c.get(ctx, "/player/local", &resp); err != nil {
		return 0, false, err
	}
	return resp.Address, resp.Present, nil
}

func (c *HTTPClient) GetState(ctx context.Context, subjectIndex int) (int, json.RawMessage, error) {
	var resp struct {
		Code  int             `json:"code"`
		State json.RawMessage `json:"state"`
	}
	err := c.post(ctx, "/state/get", map[string]interface{}{"subjectIndex": subjectIndex}, &resp)
	if err != nil {
		return -1, nil, err
	}
	return resp.Code, resp.State, nil
}

func (c *HTTPClient) ApplyState(ctx context.Context, state json.RawMessage, subjectIndex int, flags uint32) (int, error) {
	var resp struct {
		Code int `json:"code"`
	}
	err := c.post(ctx, "/state/apply", map[string]interface{}{
		"subjectIndex": subjectIndex,
		"flags":        flags,
		"state":        state,
	}, &resp)
	if err != nil {
		return -1, err
	}
	return resp.Code, nil
}

func (c *HTTPClient) ApplyStateText(ctx context.Context, state string, subjectIndex int, flags uint32) (int, error) {
	var resp struct {
		Code int `json:"code"`
	}
	err := c.post(ctx, "/state/apply", map[string]interface{}{
		"subjectIndex": subjectIndex,
		"flags":        flags,
		"stateBase64":  state,
	}, &resp)
	if err != nil {
		return -1, err
	}
	return resp.Code, nil
}

func (c *HTTPClient) Container(ctx context.Context, id uint32) ([]ContainerSlot, error) {
	var resp struct {
		Slots []ContainerSlot `json:"slots"`
	}
	if err := c.get(ctx, fmt.Sprintf("/inventory/container?id=%d", id), &resp); err != nil {
		return nil, err
	}
	return resp.Slots, nil
}

func (c *HTTPClient) TrackerReady(ctx context.Context) bool {
	var resp struct {
		Ready bool `json:"ready"`
	}
	if err := c.get(ctx, "/tracker/ready", &resp); err != nil {
		// Tracker absent is an expected condition, not an error.
		c.logger.Debug("tracker not reachable", zap.Error(err))
		return false
	}
	return resp.Ready
}

func (c *HTTPClient) TrackerCountOwned(ctx context.Context, itemID uint32, currentCharacterOnly bool, containers []uint32) (uint32, error) {
	var resp struct {
		Count uint32 `json:"count"`
	}
	err := c.post(ctx, "/tracker/count", map[string]interface{}{
		"itemId":               itemID,
		"currentCharacterOnly": currentCharacterOnly,
		"containers":           containers,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}
