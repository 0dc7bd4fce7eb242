package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const nonceCallTimeout = 10 * time.Second

// noncesSelector is the 4-byte function selector for nonces(address).
var noncesSelector = crypto.Keccak256([]byte("nonces(address)"))[:4]

// Config contains the RPC endpoint and token contract coordinates.
type Config struct {
	RPCURL       string
	TokenAddress string
}

// Client reads replay-protection nonces from the PPLP token contract.
type Client struct {
	eth    *ethclient.Client
	token  common.Address
	logger zerolog.Logger
}

// New dials the chain RPC endpoint and returns a token client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain rpc url must be provided")
	}
	if cfg.TokenAddress == "" {
		return nil, fmt.Errorf("token contract address must be provided")
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	return &Client{
		eth:    eth,
		token:  common.HexToAddress(cfg.TokenAddress),
		logger: logger.With().Str("component", "chain_client").Logger(),
	}, nil
}

// Nonce reads the token contract's per-address nonce counter. Any RPC or
// decode failure returns 0 rather than an error: the value only seeds a
// new mint request and the contract re-checks it at submission time, so
// a best-effort default keeps request creation available while the chain
// is unreachable. The fallback is logged for audit.
func (c *Client) Nonce(ctx context.Context, address string) uint64 {
	ctx, cancel := context.WithTimeout(ctx, nonceCallTimeout)
	defer cancel()

	data := make([]byte, 0, 36)
	data = append(data, noncesSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)...)

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.token, Data: data}, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("nonce read failed, defaulting to 0")
		return 0
	}
	if len(out) < 32 {
		c.logger.Warn().Str("address", address).Int("bytes", len(out)).Msg("short nonce response, defaulting to 0")
		return 0
	}

	return new(big.Int).SetBytes(out[:32]).Uint64()
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
