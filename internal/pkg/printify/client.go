package printify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Client is a thin typed client over the Printify REST API
type Client struct {
	ShopID    string
	Token     string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Retry     RetryPolicy

	HTTPClient *http.Client
}

// NewClient creates a client from cfg
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		ShopID:    cfg.ShopID,
		Token:     cfg.APIToken,
		BaseURL:   base,
		UserAgent: ua,
		Timeout:   timeout,
		Retry:     cfg.Retry,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) shopPath(format string, args ...any) string {
	return "/shops/" + url.PathEscape(c.ShopID) + fmt.Sprintf(format, args...)
}

// GetProduct fetches the product detail for id
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, c.shopPath("/products/%s.json", url.PathEscape(id)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns one page of the shop's products
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 50
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out ProductPage
	if err := c.do(ctx, http.MethodGet, c.shopPath("/products.json")+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishSucceeded confirms a publish to Printify with the storefront identity
func (c *Client) PublishSucceeded(ctx context.Context, id string, external External) error {
	body := map[string]any{"external": external}
	return c.do(ctx, http.MethodPost, c.shopPath("/products/%s/publishing_succeeded.json", url.PathEscape(id)), body, nil)
}

// PublishFailed reports a failed publish to Printify
func (c *Client) PublishFailed(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, c.shopPath("/products/%s/publishing_failed.json", url.PathEscape(id)), body, nil)
}

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var out []Webhook
	if err := c.do(ctx, http.MethodGet, c.shopPath("/webhooks.json"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateWebhook subscribes targetURL to a single topic. An empty secret
// registers an unsigned webhook.
func (c *Client) CreateWebhook(ctx context.Context, topic, targetURL, secret string) (*Webhook, error) {
	body := map[string]string{"topic": topic, "url": targetURL}
	if secret != "" {
		body["secret"] = secret
	}
	var out Webhook
	if err := c.do(ctx, http.MethodPost, c.shopPath("/webhooks.json"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWebhookSubscriptions registers targetURL for every topic. Printify
// accepts one topic per subscription, so this issues one call per topic and
// stops at the first failure.
func (c *Client) CreateWebhookSubscriptions(ctx context.Context, targetURL, secret string, topics []string) ([]Webhook, error) {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	created := make([]Webhook, 0, len(topics))
	for _, topic := range topics {
		hook, err := c.CreateWebhook(ctx, topic, targetURL, secret)
		if err != nil {
			return created, fmt.Errorf("create webhook %s: %w", topic, err)
		}
		created = append(created, *hook)
	}
	return created, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.shopPath("/webhooks/%s.json", url.PathEscape(id)), nil, nil)
}

// do sends the request, retrying 429 and 503 according to the retry policy.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.Token == "" || c.ShopID == "" {
		return errors.New("PRINTIFY_API_TOKEN/PRINTIFY_SHOP_ID are not configured")
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	attempts := c.Retry.attempts()
	for attempt := 0; ; attempt++ {
		err := c.send(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}

		var perr *Error
		if !errors.As(err, &perr) || !retryable(perr.StatusCode) || attempt+1 >= attempts {
			return err
		}

		delay := c.Retry.Backoff(attempt, perr.RetryAfter)
		log.Warnf("[Printify] %s %s returned %d, retrying in %s (attempt %d/%d)",
			method, path, perr.StatusCode, delay, attempt+1, attempts)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (gave up waiting: %v)", err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("printify %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       truncate(string(raw), 1024),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
