package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mllorens/captionpal/internal/protocol"
)

const (
	// RequestTimeout bounds one round trip to the backend.
	RequestTimeout = 12 * time.Second

	// tokenRefreshBuffer re-issues the install token this long before expiry
	// so an answer request never rides a token about to lapse.
	tokenRefreshBuffer = 60 * time.Second

	familyKeyHeader    = "X-Family-Key"
	installTokenHeader = "X-Install-Token"
)

var ErrMissingBaseURL = errors.New("missing api base url")

type cachedToken struct {
	token     string
	expiresAt int64
}

// Client talks to the answer backend, transparently acquiring and refreshing
// the install token.
type Client struct {
	baseURL   string
	familyKey string
	http      *http.Client
	now       func() time.Time

	mu    sync.Mutex
	token cachedToken
}

func New(baseURL, familyKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		familyKey: strings.TrimSpace(familyKey),
		http:      &http.Client{Timeout: RequestTimeout},
		now:       time.Now,
	}
}

// SetClock overrides the client clock. Tests only.
func (c *Client) SetClock(now func() time.Time) { c.now = now }

// RequestAnswer asks the backend for an answer to one question. Any failure
// is returned as an error; the caller decides what to display.
func (c *Client) RequestAnswer(ctx context.Context, question string, contextLines []string) (protocol.AnswerResponse, error) {
	if c.baseURL == "" {
		return protocol.AnswerResponse{}, ErrMissingBaseURL
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return protocol.AnswerResponse{}, fmt.Errorf("acquire install token: %w", err)
	}

	payload, err := json.Marshal(protocol.AnswerRequest{Question: question, Context: contextLines})
	if err != nil {
		return protocol.AnswerResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(payload))
	if err != nil {
		return protocol.AnswerResponse{}, err
	}
	c.setHeaders(req, token)

	res, err := c.http.Do(req)
	if err != nil {
		return protocol.AnswerResponse{}, fmt.Errorf("send answer request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return protocol.AnswerResponse{}, fmt.Errorf("answer request failed: %d %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out protocol.AnswerResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return protocol.AnswerResponse{}, fmt.Errorf("decode answer response: %w", err)
	}
	return out, nil
}

// ensureToken returns the cached install token, re-issuing it when missing
// or within the refresh buffer of expiry. Superseded tokens are simply
// replaced; the backend does not track them.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()

	nowMs := c.now().UnixMilli()
	if cached.token != "" && cached.expiresAt-nowMs > tokenRefreshBuffer.Milliseconds() {
		return cached.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/install", nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req, "")

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", fmt.Errorf("install failed: %d %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out protocol.InstallResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode install response: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("install response missing token")
	}

	c.mu.Lock()
	c.token = cachedToken{token: out.Token, expiresAt: out.ExpiresAt}
	c.mu.Unlock()
	return out.Token, nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	if c.familyKey != "" {
		req.Header.Set(familyKeyHeader, c.familyKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(installTokenHeader, token)
	}
}
