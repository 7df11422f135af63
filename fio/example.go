package fio

import (
	_ "embed"
	"fmt"

	"github.com/fiolab/fio-fetcher/fetcher"
)

// Bundled statement used when no token is configured, so demos and tests
// run without touching the real API.
//
//go:embed example_statement.json
var exampleStatement []byte

// Example returns the transactions of the bundled example statement.
func (c *Client) Example() ([]fetcher.Transaction, error) {
	txs, err := ParseStatement(exampleStatement)
	if err != nil {
		return nil, fmt.Errorf("parse example statement: %w", err)
	}
	return txs, nil
}
