// Package provd is a client for the provisioning server REST API: the config
// manager stores device configurations and the device manager points each
// device at one of them.
package provd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"confd/internal/metrics"
)

const (
	contentType = "application/vnd.proformatique.provd+json"
	maxBody     = 4 << 20
)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
	Breaker BreakerConfig
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		cb:      newBreaker[[]byte]("provd", cfg.Breaker),
	}
}

// do sends in as JSON and decodes the answer into out when both are non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	defer func() {
		metrics.ProvdRequests.WithLabelValues(op, metrics.Result(err)).Inc()
	}()

	var body []byte
	if in != nil {
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
	}
	data, err := execute(c.cb, func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err = json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentType)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, method, path, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   res.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
