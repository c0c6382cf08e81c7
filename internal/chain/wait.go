package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTransactionDropped  = errors.New("transaction dropped")
)

// DroppedAfterPolls is how many consecutive polls may miss both the receipt
// and the transaction itself before the transaction is reported as dropped.
var DroppedAfterPolls = 5

const defaultPollInterval = 2 * time.Second

// WaitMined polls until the transaction is mined. It has no deadline of its
// own: only ctx ends the wait early. Failed receipt lookups are retried on the
// next tick. A mined transaction with status 0 returns its receipt together
// with ErrTransactionReverted.
func WaitMined(ctx context.Context, r ReceiptReader, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	misses := 0
	for {
		receipt, err := r.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s, block: %s)", ErrTransactionReverted, hash.Hex(), receipt.BlockNumber)
			}
			return receipt, nil

		case errors.Is(err, ethereum.NotFound):
			_, _, txErr := r.TransactionByHash(ctx, hash)
			switch {
			case txErr == nil:
				misses = 0 // still pending
			case errors.Is(txErr, ethereum.NotFound):
				misses++
				if misses >= DroppedAfterPolls {
					return nil, fmt.Errorf("%w: %s is no longer known to the node", ErrTransactionDropped, hash.Hex())
				}
			}

		default:
			// Node errors say nothing about the transaction; poll again.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
