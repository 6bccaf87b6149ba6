// Package censusmapper is the HTTP transport to the CensusMapper API.
package censusmapper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
)

const apiKeyField = "api_key"

// errorBodyLimit caps how much of a failed response is read for the message.
const errorBodyLimit = 64 << 10

// Field is one ordered form field of a POST.
type Field struct {
	Name  string
	Value string
}

type Client interface {
	Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
	PostForm(ctx context.Context, endpoint string, fields []Field) ([]byte, error)
}

type client struct {
	baseURL string
	apiKey  func() string
	http    *http.Client
	metrics *metrics.Collector
}

type Option func(*client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// NewClient builds a client for baseURL. apiKey is resolved per request so a
// key set after construction is picked up.
func NewClient(baseURL string, timeout time.Duration, apiKey func() string, opts ...Option) Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	c := &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) key() (string, error) {
	key := ""
	if c.apiKey != nil {
		key = strings.TrimSpace(c.apiKey())
	}
	if key == "" {
		return "", constants.ErrMissingCredential
	}
	return key, nil
}

func (c *client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	key, err := c.key()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(apiKeyField, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	return c.do(ctx, endpoint, req)
}

// PostForm sends fields as multipart/form-data in the given order, followed
// by the API key.
func (c *client) PostForm(ctx context.Context, endpoint string, fields []Field) ([]byte, error) {
	key, err := c.key()
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range append(append([]Field(nil), fields...), Field{Name: apiKeyField, Value: key}) {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, fmt.Errorf("multipart.WriteField %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("multipart.Close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(ctx, endpoint, req)
}

func (c *client) do(ctx context.Context, endpoint string, req *http.Request) ([]byte, error) {
	logger.Debugf(ctx, "censusmapper %s %s", req.Method, endpoint)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Upstream(endpoint, "error", time.Since(start))
		return nil, &constants.TransportError{Op: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.metrics.Upstream(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &constants.TransportError{
			Op:         endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(resp.Header.Get("Content-Type"), raw, resp.Status)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &constants.TransportError{Op: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	return data, nil
}

// errorMessage reduces an error body to one line. HTML pages are reduced to
// their title or first heading.
func errorMessage(contentType string, body []byte, status string) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}

	if strings.Contains(contentType, "html") || strings.HasPrefix(strings.ToLower(text), "<!doctype html") || strings.HasPrefix(strings.ToLower(text), "<html") {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			for _, sel := range []string{"title", "h1", "body"} {
				if s := strings.Join(strings.Fields(doc.Find(sel).First().Text()), " "); s != "" {
					text = s
					break
				}
			}
		}
	}

	if len(text) > 300 {
		text = text[:300] + "..."
	}
	return text
}
