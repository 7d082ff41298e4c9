// Package supportapi is the HTTP client for the platform's chat/support
// endpoints. It owns header plumbing (tenant, bearer token, request id),
// the error envelope, and retry for idempotent calls; it never mutates
// client-side state, callers own everything derived from its results.
package supportapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/support"
)

const (
	// chatsPath is the main-service collection endpoint.
	chatsPath = "/astropeace-main/chats"

	defaultTimeout = 15 * time.Second
	defaultRetries = 1
)

// ErrEmptyChatID is returned before any request is issued when a caller
// passes a blank chat id. A blank id means "no chat selected", never a
// call.
var ErrEmptyChatID = errors.New("chat id required")

// TokenSource supplies the current bearer token for a request. The
// client never acquires or refreshes tokens itself.
type TokenSource func() string

// Config configures a Client.
type Config struct {
	BaseURL  string
	TenantID string
	Token    TokenSource
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	// Retries is the number of extra attempts for idempotent calls on
	// transport errors and 5xx responses.
	Retries int
}

// Client calls the chat/support REST surface.
type Client struct {
	baseURL    string
	tenantID   string
	token      TokenSource
	httpClient *http.Client
	retries    int
}

// NewClient validates the config and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL required")
	}
	tenant := strings.TrimSpace(cfg.TenantID)
	if tenant == "" {
		return nil, fmt.Errorf("tenant id required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = defaultRetries
	}
	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    base,
		tenantID:   tenant,
		token:      token,
		httpClient: httpClient,
		retries:    retries,
	}, nil
}

// FetchAllChats returns the unfiltered inbox, in the server's order
// (newest activity first). The client does not re-sort.
func (c *Client) FetchAllChats(ctx context.Context) ([]support.Chat, error) {
	var chats []support.Chat
	if err := c.do(ctx, http.MethodGet, chatsPath, nil, &chats, true); err != nil {
		return nil, fmt.Errorf("fetch chats: %w", err)
	}
	return chats, nil
}

// FetchChatByID returns the chat payload in whichever of the two legal
// shapes the server chose; callers resolve it through support.Normalize.
func (c *Client) FetchChatByID(ctx context.Context, id string) (support.ChatPayload, error) {
	if strings.TrimSpace(id) == "" {
		return support.ChatPayload{}, ErrEmptyChatID
	}
	var payload support.ChatPayload
	if err := c.do(ctx, http.MethodGet, chatsPath+"/"+id, nil, &payload, true); err != nil {
		return support.ChatPayload{}, fmt.Errorf("fetch chat %s: %w", id, err)
	}
	return payload, nil
}

// MarkAllMessagesAsReadByAstrologer marks every message in the thread
// read by the astrologer. The endpoint is idempotent; calling it on a
// fully-read thread is a no-op.
func (c *Client) MarkAllMessagesAsReadByAstrologer(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyChatID
	}
	if err := c.do(ctx, http.MethodPut, chatsPath+"/"+id+"/read", struct{}{}, nil, true); err != nil {
		return fmt.Errorf("mark chat %s read: %w", id, err)
	}
	return nil
}

// AddAstrologerResponse appends an astrologer-authored reply. Text must
// be non-empty after trimming; the guard lives here as well as in the
// composer so no blank reply ever reaches the wire.
func (c *Client) AddAstrologerResponse(ctx context.Context, id, text string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyChatID
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("reply text required")
	}
	body := struct {
		Text string `json:"text"`
	}{Text: trimmed}
	if err := c.do(ctx, http.MethodPost, chatsPath+"/"+id+"/response", body, nil, false); err != nil {
		return fmt.Errorf("send reply to chat %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, idempotent bool) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}

	attempts := 1
	if idempotent {
		attempts += c.retries
	}

	requestID := uuid.New().String()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.doOnce(ctx, method, path, encoded, out, requestID)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt+1 == attempts {
			return err
		}
		logging.Warn().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Str("error", logging.Redact(err.Error())).
			Msg("request failed, retrying")
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any, requestID string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-tenant-id", c.tenantID)
	req.Header.Set("x-request-id", requestID)
	if token := strings.TrimSpace(c.token()); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &transportError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var tErr *transportError
	if errors.As(err, &tErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
