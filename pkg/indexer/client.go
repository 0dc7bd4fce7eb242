// Package indexer queries the public transfer-history service for the
// treasury wallet's token transactions. The API is Etherscan-compatible:
// paged JSON over HTTP, newest-last with sort=asc.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 100
	requestTimeout  = 15 * time.Second
	maxPages        = 1000
)

// Config contains the indexing service coordinates.
type Config struct {
	BaseURL         string
	APIKey          string
	ContractAddress string
	PageSize        int
}

// TokenTransfer is one token movement as reported by the indexer.
// Value is the raw base-unit amount as a decimal string.
type TokenTransfer struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TimeStamp       string `json:"timeStamp"`
}

type transferPage struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  []TokenTransfer `json:"result"`
}

// Client pages through the transfer-history API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// New constructs an indexer client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("indexer base url must be provided")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger.With().Str("component", "indexer_client").Logger(),
	}, nil
}

// OutgoingTransfers fetches the full outgoing token transfer history for
// the given wallet, paging until the indexer is exhausted.
func (c *Client) OutgoingTransfers(ctx context.Context, wallet string) ([]TokenTransfer, error) {
	var transfers []TokenTransfer

	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, wallet, page)
		if err != nil {
			return nil, fmt.Errorf("transfer history page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, t := range batch {
			if strings.EqualFold(t.From, wallet) {
				transfers = append(transfers, t)
			}
		}

		if len(batch) < c.cfg.PageSize {
			break
		}
	}

	c.logger.Debug().Str("wallet", wallet).Int("transfers", len(transfers)).Msg("transfer history fetched")

	return transfers, nil
}

func (c *Client) fetchPage(ctx context.Context, wallet string, page int) ([]TokenTransfer, error) {
	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", "tokentx")
	query.Set("address", wallet)
	query.Set("page", strconv.Itoa(page))
	query.Set("offset", strconv.Itoa(c.cfg.PageSize))
	query.Set("sort", "asc")
	if c.cfg.ContractAddress != "" {
		query.Set("contractaddress", c.cfg.ContractAddress)
	}
	if c.cfg.APIKey != "" {
		query.Set("apikey", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer returned status %d", resp.StatusCode)
	}

	var decoded transferPage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode transfer page: %w", err)
	}

	// The API reports an empty history as status "0" with a message
	// rather than an empty result array.
	if decoded.Status != "1" {
		if strings.Contains(strings.ToLower(decoded.Message), "no transactions") {
			return nil, nil
		}
		return nil, fmt.Errorf("indexer error: %s", decoded.Message)
	}

	return decoded.Result, nil
}
