// Package feishu fetches docx block lists from the Feishu/Lark open API.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/blocks"
	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/retry"
)

const (
	pageSize    = 500
	tokenMargin = 10 * time.Minute
	maxBody     = 32 << 20
)

// Feishu API codes.
var (
	authCodes      = map[int]bool{99991661: true, 99991663: true, 99991664: true, 99991668: true, 1770032: true}
	notFoundCodes  = map[int]bool{1770002: true, 1770003: true}
	transientCodes = map[int]bool{99991400: true, 1770001: true}
)

// Token is a tenant access token with an explicit expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can be used at now with margin to spare.
func (t Token) Valid(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Add(margin).Before(t.ExpiresAt)
}

// Document is a fetched block list together with the raw payload it was decoded from.
type Document struct {
	ID     string
	Blocks []blocks.Block
	// Raw is a single blocks.Response holding every page's items, suitable for api_response.json.
	Raw []byte
}

// Client talks to the Feishu open API. The tenant token is owned by the client.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
	policy     retry.Policy
	sleep      retry.Sleeper
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.Mutex
	token Token
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithSleeper replaces the wait between retries.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client from the source configuration.
func NewClient(cfg config.SourceConfig, opts ...Option) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultFeishuBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: cfg.Timeout.Std()},
		policy:     retry.FromConfig(cfg.Retry),
		sleep:      retry.SleepContext,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type tokenResponse struct {
	envelope
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

// TenantToken returns the cached tenant access token, refreshing it when it
// is within ten minutes of expiry.
func (c *Client) TenantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid(c.now(), tokenMargin) {
		return c.token.Value, nil
	}

	body, err := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}
	var tr tokenResponse
	err = c.do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		tr = tokenResponse{}
		return c.send(req, &tr, func() envelope { return tr.envelope })
	})
	if err != nil {
		return "", err
	}
	if tr.TenantAccessToken == "" {
		return "", foundationerrors.AuthError("feishu returned an empty tenant token").Build()
	}
	c.token = Token{Value: tr.TenantAccessToken, ExpiresAt: c.now().Add(time.Duration(tr.Expire) * time.Second)}
	c.logger.Debug("Refreshed tenant access token", slog.Time("expires_at", c.token.ExpiresAt))
	return c.token.Value, nil
}

type blocksResponse struct {
	envelope
	Data blocks.Page `json:"data"`
}

// FetchDocument lists every block of a docx document, following pagination.
func (c *Client) FetchDocument(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, foundationerrors.ValidationError("document id is required").Build()
	}
	var items []json.RawMessage
	pageToken := ""
	for page := 1; ; page++ {
		token, err := c.TenantToken(ctx)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(pageSize))
		q.Set("document_revision_id", "-1")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		endpoint := c.baseURL + "/open-apis/docx/v1/documents/" + url.PathEscape(documentID) + "/blocks?" + q.Encode()

		var br blocksResponse
		err = c.do(ctx, func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return fmt.Errorf("create blocks request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
			br = blocksResponse{}
			return c.send(req, &br, func() envelope { return br.envelope })
		})
		if err != nil {
			if classified, ok := foundationerrors.AsClassified(err); ok {
				return nil, classified.WithContext("document", documentID)
			}
			return nil, err
		}
		items = append(items, br.Data.Items...)
		c.logger.Debug("Fetched block page",
			logfields.Document(documentID),
			slog.Int("page", page),
			logfields.Count(len(br.Data.Items)))
		if !br.Data.HasMore || br.Data.PageToken == "" {
			break
		}
		pageToken = br.Data.PageToken
	}

	list, err := blocks.DecodeItems(items)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "decode document blocks").
			WithContext("document", documentID).
			Build()
	}
	raw, err := json.MarshalIndent(blocks.Response{Code: 0, Msg: "success", Data: blocks.Page{Items: items}}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal raw payload: %w", err)
	}
	return &Document{ID: documentID, Blocks: list, Raw: raw}, nil
}

func (c *Client) do(ctx context.Context, fn func(ctx context.Context) error) error {
	onRetry := func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Retrying Feishu request",
			logfields.Attempt(attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	}
	return c.policy.Do(ctx, c.sleep, retry.Retryable, onRetry, fn)
}

// send performs req, decodes the JSON body into out and classifies HTTP and API failures.
func (c *Client) send(req *http.Request, out any, env func() envelope) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feishu request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// Error bodies usually carry an API code that is more specific than the status.
		if json.Unmarshal(data, out) == nil && env().Code != 0 {
			return apiError(env().Code, env().Msg, resp.StatusCode)
		}
		return statusError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if e := env(); e.Code != 0 {
		return apiError(e.Code, e.Msg, resp.StatusCode)
	}
	return nil
}

func apiError(code int, msg string, status int) error {
	var b *foundationerrors.ErrorBuilder
	switch {
	case authCodes[code]:
		b = foundationerrors.AuthError("feishu rejected the credentials: " + msg)
	case notFoundCodes[code]:
		b = foundationerrors.NotFoundError("feishu document not found: " + msg)
	case transientCodes[code]:
		b = foundationerrors.NetworkError("feishu is busy: " + msg).RateLimit()
	default:
		b = foundationerrors.ValidationError("feishu api error: " + msg)
	}
	return b.WithContext("code", code).WithContext("status", status).Build()
}

func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("feishu returned status %d", status)
	var b *foundationerrors.ErrorBuilder
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		b = foundationerrors.AuthError(msg)
	case status == http.StatusNotFound:
		b = foundationerrors.NotFoundError(msg)
	case status == http.StatusTooManyRequests:
		b = foundationerrors.NetworkError(msg).RateLimit()
	case status >= 500:
		b = foundationerrors.NetworkError(msg)
	default:
		b = foundationerrors.ValidationError(msg)
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return b.WithContext("status", status).WithContext("body", snippet).Build()
}
