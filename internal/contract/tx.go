package contract

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/w3token/internal/chain"
)

// Tx is a submitted transaction.
type Tx struct {
	hash     common.Hash
	reader   chain.ReceiptReader
	interval time.Duration
}

// Hash returns the transaction hash.
func (tx *Tx) Hash() common.Hash { return tx.hash }

// Wait blocks until the transaction is mined, reverted or dropped, or ctx ends.
func (tx *Tx) Wait(ctx context.Context) (*types.Receipt, error) {
	return chain.WaitMined(ctx, tx.reader, tx.hash, tx.interval)
}
