package fio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Statement(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(exampleStatement)
	}))
	defer srv.Close()

	client := NewClient(Config{Token: "testtoken", BaseURL: srv.URL})
	require.True(t, client.Configured())

	from := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2012, 8, 1, 0, 0, 0, 0, time.UTC)

	txs, err := client.Statement(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
	assert.Equal(t, "/ib_api/rest/periods/testtoken/2012-06-01/2012-08-01/transactions.json", gotPath)
}

func TestClient_StatementNon2xxIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no access", http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(Config{Token: "testtoken", BaseURL: srv.URL})

	_, err := client.Statement(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteRejected)
}

func TestClient_SanitizeStripsToken(t *testing.T) {
	client := NewClient(Config{Token: "supersecret"})

	sanitized := client.Sanitize(`Get "https://fioapi.fio.cz/ib_api/rest/periods/supersecret/...": connection refused`)

	assert.NotContains(t, sanitized, "supersecret")
	assert.Contains(t, sanitized, "<token>")
}

func TestClient_NotConfiguredWithoutToken(t *testing.T) {
	client := NewClient(Config{})
	assert.False(t, client.Configured())

	txs, err := client.Example()
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}
