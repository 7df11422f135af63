// Package fio is a client for the Fio bank statement REST API.
package fio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fiolab/fio-fetcher/fetcher"
)

// ErrRemoteRejected is returned for any non-2xx answer from the statement
// API. The run is failed, never retried automatically.
var ErrRemoteRejected = errors.New("statement API rejected the request")

const (
	dateFormat     = "2006-01-02"
	requestTimeout = 30 * time.Second
)

type Config struct {
	Token   string `env:"TOKEN"` // Empty token switches the client to the bundled example statement
	BaseURL string `env:"API_URL, default=https://fioapi.fio.cz"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Configured reports whether an access token is present.
func (c *Client) Configured() bool {
	return c.cfg.Token != ""
}

// Statement fetches all transactions of the account in the [from, to]
// window with a single API call.
func (c *Client) Statement(ctx context.Context, from, to time.Time) ([]fetcher.Transaction, error) {
	endpoint := fmt.Sprintf(
		"%s/ib_api/rest/periods/%s/%s/%s/transactions.json",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.Token),
		from.Format(dateFormat),
		to.Format(dateFormat),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build statement request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call statement API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read statement response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrRemoteRejected, resp.StatusCode)
	}

	txs, err := ParseStatement(body)
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}

	return txs, nil
}

// Sanitize masks the configured token inside a message.
func (c *Client) Sanitize(message string) string {
	return MaskToken(message, c.cfg.Token)
}
