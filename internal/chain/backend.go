package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ReceiptReader looks up mined and pending transactions.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Backend is the part of the go-ethereum client the token client talks to.
// *ethclient.Client and the simulated backend's client both satisfy it.
type Backend interface {
	ethereum.ContractCaller
	ReceiptReader
	ethereum.TransactionSender
	ethereum.GasEstimator
	ethereum.GasPricer1559
	ethereum.ChainIDReader
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to an EVM JSON-RPC node (http, ws or ipc).
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing node %s: %w", url, err)
	}
	return client, nil
}

// IsRevert reports whether err carries an EVM revert from eth_call or
// eth_estimateGas.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "revert")
}

// RevertReason tries to pull the revert reason out of an RPC error message.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	// Common pattern: "execution reverted: <reason>"
	if idx := strings.Index(msg, "execution reverted"); idx >= 0 {
		return strings.TrimSpace(msg[idx:])
	}
	if idx := strings.Index(msg, "revert"); idx >= 0 {
		return strings.TrimSpace(msg[idx:])
	}
	return msg
}
