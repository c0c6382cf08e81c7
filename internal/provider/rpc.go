package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/Mohsinsiddi/w3token/internal/chain"
)

// codeUserRejected is the EIP-1193 error code for a declined request.
const codeUserRejected = 4001

// RPCProvider talks to an external wallet over EIP-1193 style JSON-RPC.
type RPCProvider struct {
	client *rpc.Client
	url    string
}

// DialRPC connects to a wallet endpoint and checks that it answers.
func DialRPC(ctx context.Context, url string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing wallet %s: %w", url, err)
	}
	var chainID hexutil.Big
	if err := client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		client.Close()
		return nil, fmt.Errorf("probing wallet %s: %w", url, err)
	}
	return NewRPCProvider(client, url), nil
}

// NewRPCProvider wraps an already connected client.
func NewRPCProvider(client *rpc.Client, url string) *RPCProvider {
	return &RPCProvider{client: client, url: url}
}

func (p *RPCProvider) Name() string { return "rpc " + p.url }

// Accounts calls eth_accounts.
func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, mapError("eth_accounts", err)
	}
	return accounts, nil
}

// RequestAccounts calls eth_requestAccounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, mapError("eth_requestAccounts", err)
	}
	return accounts, nil
}

// Signer returns a signer that forwards transactions to the wallet.
func (p *RPCProvider) Signer(account common.Address) (Signer, error) {
	return &rpcSigner{client: p.client, from: account}, nil
}

func (p *RPCProvider) Close() { p.client.Close() }

type rpcSigner struct {
	client *rpc.Client
	from   common.Address
}

type sendTxArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func (s *rpcSigner) Address() common.Address { return s.from }

// SendTransaction asks the wallet to sign and broadcast. Gas and fees are
// left to the wallet.
func (s *rpcSigner) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := sendTxArgs{From: s.from, To: to, Data: data}
	if err := s.client.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, mapError("eth_sendTransaction", err)
	}
	return hash, nil
}

func mapError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
		return fmt.Errorf("%w: %s", ErrUserRejected, rpcErr.Error())
	}
	if chain.IsRevert(err) {
		return fmt.Errorf("%w: %s", chain.ErrTransactionReverted, chain.RevertReason(err))
	}
	return fmt.Errorf("%s: %w", method, err)
}
