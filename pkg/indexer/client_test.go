package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const treasury = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func servePages(t *testing.T, pages map[string][]TokenTransfer) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		transfers, ok := pages[page]
		if !ok || len(transfers) == 0 {
			_ = json.NewEncoder(w).Encode(transferPage{Status: "0", Message: "No transactions found"})
			return
		}
		_ = json.NewEncoder(w).Encode(transferPage{Status: "1", Message: "OK", Result: transfers})
	}))
}

func TestOutgoingTransfersPagesUntilExhausted(t *testing.T) {
	server := servePages(t, map[string][]TokenTransfer{
		"1": {
			{Hash: "0x01", From: treasury, To: "0x01", Value: "100"},
			{Hash: "0x02", From: treasury, To: "0x02", Value: "200"},
		},
		"2": {
			{Hash: "0x03", From: treasury, To: "0x03", Value: "300"},
		},
	})
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, PageSize: 2}, testLogger())
	require.NoError(t, err)

	transfers, err := client.OutgoingTransfers(context.Background(), treasury)
	require.NoError(t, err)
	require.Len(t, transfers, 3)
	require.Equal(t, "0x03", transfers[2].Hash)
}

func TestOutgoingTransfersFiltersIncoming(t *testing.T) {
	server := servePages(t, map[string][]TokenTransfer{
		"1": {
			{Hash: "0x01", From: treasury, To: "0x01", Value: "100"},
			{Hash: "0x02", From: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", To: treasury, Value: "50"},
		},
	})
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, PageSize: 10}, testLogger())
	require.NoError(t, err)

	transfers, err := client.OutgoingTransfers(context.Background(), treasury)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.Equal(t, "0x01", transfers[0].Hash)
}

func TestOutgoingTransfersEmptyHistory(t *testing.T) {
	server := servePages(t, nil)
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	transfers, err := client.OutgoingTransfers(context.Background(), treasury)
	require.NoError(t, err)
	require.Empty(t, transfers)
}

func TestOutgoingTransfersSurfacesIndexerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(transferPage{Status: "0", Message: "Max rate limit reached"})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	_, err = client.OutgoingTransfers(context.Background(), treasury)
	require.Error(t, err)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, testLogger())
	require.Error(t, err)
}
