package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// Token is an access token with an explicit expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at now with margin to spare.
func (t Token) Valid(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Add(margin).Before(t.ExpiresAt)
}

// tokenMargin is how long before expiry a token is refreshed.
const tokenMargin = 10 * time.Minute

// Baidu error codes that mean the access token must be fetched again.
var baiduTokenErrors = map[int]bool{110: true, 111: true}

// Baidu error codes that are transient on the server side.
var baiduTransientErrors = map[int]bool{18: true, 282000: true}

// Baidu calls the Baidu AI machine translation API (texttrans/v1).
// The OAuth token is owned by the client and refreshed before it expires.
type Baidu struct {
	baseURL    string
	apiKey     string
	secretKey  string
	source     config.Language
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token Token
}

// NewBaidu creates a Baidu client. A nil httpClient uses a client with a 30s timeout.
func NewBaidu(cfg config.BaiduConfig, source config.Language, httpClient *http.Client) *Baidu {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultBaiduBaseURL
	}
	return &Baidu{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		source:     source,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type baiduTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type baiduRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Q    string `json:"q"`
}

type baiduResponse struct {
	Result *struct {
		TransResult []struct {
			Src string `json:"src"`
			Dst string `json:"dst"`
		} `json:"trans_result"`
	} `json:"result"`
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Translate implements Translator.
func (b *Baidu) Translate(ctx context.Context, text string, lang config.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	token, err := b.accessToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(baiduRequest{From: b.source.APICode, To: lang.APICode, Q: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := b.baseURL + "/rpc/2.0/mt/texttrans/v1?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("baidu translate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("baidu", resp)
	}

	var out baiduResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.ErrorCode != 0 {
		return "", b.apiError(out.ErrorCode, out.ErrorMsg, lang)
	}
	if out.Result == nil || len(out.Result.TransResult) == 0 {
		return "", foundationerrors.TranslationError("baidu returned no translation").
			WithContext("language", lang.Code).
			Build()
	}
	parts := make([]string, len(out.Result.TransResult))
	for i, r := range out.Result.TransResult {
		parts[i] = r.Dst
	}
	return strings.Join(parts, "\n"), nil
}

func (b *Baidu) apiError(code int, msg string, lang config.Language) error {
	builder := foundationerrors.TranslationError("baidu translate failed: "+msg).
		WithContext("error_code", code).
		WithContext("language", lang.Code)
	switch {
	case baiduTokenErrors[code]:
		b.mu.Lock()
		b.token = Token{}
		b.mu.Unlock()
		builder = builder.Immediate()
	case baiduTransientErrors[code]:
		builder = builder.RateLimit()
	default:
		builder = builder.WithRetry(foundationerrors.RetryNever)
	}
	return builder.Build()
}

// accessToken returns the cached token or fetches a new one.
func (b *Baidu) accessToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token.Valid(b.now(), tokenMargin) {
		return b.token.Value, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", b.apiKey)
	q.Set("client_secret", b.secretKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/oauth/2.0/token?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("baidu token: %w", err)
	}
	defer resp.Body.Close()

	var tr baiduTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", statusError("baidu oauth", resp)
		}
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", foundationerrors.AuthError("baidu token request rejected").
			WithContext("error", tr.Error).
			WithContext("description", tr.ErrorDescription).
			WithContext("status", resp.StatusCode).
			Build()
	}
	b.token = Token{Value: tr.AccessToken, ExpiresAt: b.now().Add(time.Duration(tr.ExpiresIn) * time.Second)}
	return b.token.Value, nil
}
