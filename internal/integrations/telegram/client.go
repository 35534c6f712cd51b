package telegram

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
)

const defaultBaseURL = "https://api.telegram.org"

// TokenSource supplies the bot token. *paramstore.CachedToken satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// sendMessageRequest is the minimal request shape for Bot API sendMessage.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// HTTPStatusError captures non-2xx Bot API responses. The bot token is part
// of the request path, so only the method name is kept.
type HTTPStatusError struct {
	StatusCode  int
	Method      string
	Description string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("telegram: unexpected status %d from %s: %s", e.StatusCode, e.Method, e.Description)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client delivers text messages to Telegram chats.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client that resolves the bot token through ts on first
// use.
func NewClient(ts TokenSource, opts ...Option) (*Client, error) {
	if ts == nil {
		return nil, errors.New("telegram: token source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      ts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func methodURL(baseURL, token, method string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/bot" + token + "/" + method
}

// Send posts text to the chat identified by ownerID. Delivery is not
// confirmed beyond the Bot API accepting the request.
func (c *Client) Send(ctx context.Context, ownerID, text string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.New("telegram: chat id must not be empty")
	}
	token, err := c.token.Token(ctx)
	if err != nil {
		return fmt.Errorf("telegram: resolve bot token: %w", err)
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: ownerID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, methodURL(c.baseURL, token, "sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("telegram: request failed: %w", redact(err, token))
	}
	defer func() { _ = res.Body.Close() }()

	buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var payload apiResponse
	_ = json.Unmarshal(buf, &payload)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		desc := payload.Description
		if desc == "" {
			desc = string(buf)
		}
		return &HTTPStatusError{StatusCode: res.StatusCode, Method: "sendMessage", Description: desc}
	}
	if !payload.OK {
		return fmt.Errorf("telegram: sendMessage not ok: %s", payload.Description)
	}
	return nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, token, "<redacted>"))
}
