package proxy

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eorzealink/server/config"
	"github.com/eorzealink/server/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Result is a parsed loadout page.
type Result struct {
	Title  string         `json:"title"`
	Author string         `json:"author"`
	Rows   []model.RawRow `json:"rows"`
}

// Client fetches and parses loadout pages through the parse proxy. The
// proxy is hard-required: with no base URL configured every fetch yields
// an empty result.
type Client struct {
	http      *http.Client
	base      string
	userAgent string
	creds     CredentialStore
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewClient creates a proxy client.
func NewClient(cfg config.ProxyConfig, creds CredentialStore, logger *zap.Logger) *Client {
	rps := cfg.FetchRPS
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		creds:     creds,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}
}

// Fetch retrieves the parsed rows for a loadout page URL.
//
// A 401/403 answer triggers a one-shot credential bootstrap and exactly
// one retry; any further auth failure yields an empty result, never an
// error. Transport failures are returned as errors.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	if c.base == "" {
		c.logger.Warn("proxy base URL not configured; fetch skipped")
		return &Result{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if err := c.ensureCredentials(ctx, false); err != nil {
		// Registration may legitimately fail while the proxy still
		// accepts unsigned requests; try the fetch anyway.
		c.logger.Warn("credential bootstrap failed", zap.Error(err))
	}

	resp, err := c.doParse(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body)
		c.logger.Info("proxy auth expired, re-registering")

		if err := c.ensureCredentials(ctx, true); err != nil {
			return &Result{}, nil
		}
		retry, err := c.doParse(ctx, pageURL)
		if err != nil {
			return &Result{}, nil
		}
		defer retry.Body.Close()
		if retry.StatusCode != http.StatusOK {
			return &Result{}, nil
		}
		return parseBody(retry.Body)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("proxy parse failed", zap.Int("status", resp.StatusCode))
		return &Result{}, nil
	}
	return parseBody(resp.Body)
}

func (c *Client) doParse(ctx context.Context, pageURL string) (*http.Response, error) {
	reqURL := c.base + "/parse?url=" + url.QueryEscape(pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	clientID, secret, err := c.creds.Load(ctx, c.base)
	if err == nil && clientID != "" && secret != "" {
		sign(req, clientID, secret, pageURL)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy: fetch: %w", err)
	}
	return resp, nil
}

// sign adds the request-signing headers: x-sig is the lowercase-hex
// HMAC-SHA256 over "{url}|{ts}" keyed by the shared secret.
func sign(req *http.Request, clientID, secret, pageURL string) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(pageURL + "|" + ts))
	sig := hex.EncodeToString(mac.Sum(nil))

	req.Header.Set("x-client", clientID)
	req.Header.Set("x-ts", ts)
	req.Header.Set("x-sig", sig)
}

// ensureCredentials loads stored credentials, registering with the proxy
// when none exist or force is set.
func (c *Client) ensureCredentials(ctx context.Context, force bool) error {
	if !force {
		clientID, secret, err := c.creds.Load(ctx, c.base)
		if err == nil && clientID != "" && secret != "" {
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/register",
		bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("proxy: register: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proxy: register: status %d", resp.StatusCode)
	}

	var reg struct {
		ClientID string `json:"clientId"`
		Secret   string `json:"secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return fmt.Errorf("proxy: register: %w", err)
	}
	if reg.ClientID == "" || reg.Secret == "" {
		return fmt.Errorf("proxy: register: empty credentials")
	}
	return c.creds.Save(ctx, c.base, reg.ClientID, reg.Secret)
}

// parseBody decodes the proxy's parse response into rows. The legacy
// single-dye shape and the dyes array are both accepted; entries past the
// second dye are ignored and blank dye text means no tint.
func parseBody(r io.Reader) (*Result, error) {
	var body struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Rows   []struct {
			Slot string   `json:"slot"`
			Item string   `json:"item"`
			Dye  string   `json:"dye"`
			Dyes []string `json:"dyes"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("proxy: parse response: %w", err)
	}

	out := &Result{Title: body.Title, Author: body.Author}
	out.Rows = make([]model.RawRow, 0, len(body.Rows))
	for _, row := range body.Rows {
		raw := model.RawRow{SlotHint: row.Slot, ItemName: row.Item}
		if len(row.Dyes) > 0 {
			raw.Dye1 = strings.TrimSpace(row.Dyes[0])
			if len(row.Dyes) > 1 {
				raw.Dye2 = strings.TrimSpace(row.Dyes[1])
			}
		} else {
			raw.Dye1 = strings.TrimSpace(row.Dye)
		}
		out.Rows = append(out.Rows, raw)
	}
	return out, nil
}
