package chain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrChainMismatch means a node serves a different chain than configured.
var ErrChainMismatch = errors.New("node is on a different chain")

// HealthTimeout bounds a single health check.
const HealthTimeout = 5 * time.Second

// Endpoint is the result of probing one node.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	ChainID     int64
	BlockNumber uint64
	Healthy     bool
}

// HealthCheck dials url and reads its chain ID and head block. A node is
// healthy if it answers within HealthTimeout and, when wantChainID is
// non-zero, reports that chain.
func HealthCheck(ctx context.Context, url string, wantChainID int64) (Endpoint, error) {
	ep := Endpoint{URL: url}

	timeoutCtx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	client, err := Dial(timeoutCtx, url)
	if err != nil {
		return ep, err
	}
	defer client.Close()

	start := time.Now()
	blockNum, err := client.BlockNumber(timeoutCtx)
	ep.Latency = time.Since(start)
	if err != nil {
		return ep, fmt.Errorf("eth_blockNumber: %w", err)
	}
	ep.BlockNumber = blockNum

	id, err := client.ChainID(timeoutCtx)
	if err != nil {
		return ep, fmt.Errorf("eth_chainId: %w", err)
	}
	ep.ChainID = id.Int64()

	if wantChainID != 0 && ep.ChainID != wantChainID {
		return ep, fmt.Errorf("%w: want %d, got %d", ErrChainMismatch, wantChainID, ep.ChainID)
	}
	ep.Healthy = true
	return ep, nil
}
