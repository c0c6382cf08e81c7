package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/Mohsinsiddi/w3token/internal/wallet"
)

// ConsentFunc asks the user whether w may be used. It is the local stand-in
// for a wallet's connection prompt.
type ConsentFunc func(ctx context.Context, w *wallet.Wallet) (bool, error)

// KeystoreProvider serves signing wallets kept in the local keychain.
type KeystoreProvider struct {
	wallets   *wallet.Manager
	backend   chain.Backend
	consent   ConsentFunc
	preferred string

	mu      sync.Mutex
	granted *wallet.Wallet
}

// NewKeystoreProvider creates a provider over wallets. preferred names the
// wallet offered on connect; empty means the manager's default.
func NewKeystoreProvider(wallets *wallet.Manager, backend chain.Backend, consent ConsentFunc, preferred string) *KeystoreProvider {
	return &KeystoreProvider{
		wallets:   wallets,
		backend:   backend,
		consent:   consent,
		preferred: preferred,
	}
}

func (p *KeystoreProvider) Name() string { return "keystore" }

// Accounts returns the wallet granted in this process, if any.
func (p *KeystoreProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.granted == nil {
		return nil, nil
	}
	return []common.Address{p.granted.Addr()}, nil
}

// RequestAccounts offers the preferred wallet to the consent function.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w, err := p.pick()
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}

	if p.consent != nil {
		ok, err := p.consent(ctx, w)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserRejected
		}
	}

	p.mu.Lock()
	p.granted = w
	p.mu.Unlock()
	return []common.Address{w.Addr()}, nil
}

// Signer returns a local signer for account.
func (p *KeystoreProvider) Signer(account common.Address) (Signer, error) {
	w, err := p.wallets.ByAddress(account)
	if err != nil {
		return nil, fmt.Errorf("wallet for %s: %w", account.Hex(), err)
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %s", wallet.ErrWatchOnly, w.Name)
	}
	return &keySigner{
		signer:  wallet.NewSigner(w, p.wallets.KeyStore()),
		backend: p.backend,
	}, nil
}

func (p *KeystoreProvider) Close() {}

// pick returns the wallet to offer on connect. A watch-only default is
// passed over for the first signing wallet; a watch-only preferred wallet is
// an error because it was chosen explicitly.
func (p *KeystoreProvider) pick() (*wallet.Wallet, error) {
	if p.preferred != "" {
		w, err := p.wallets.Get(p.preferred)
		if err != nil {
			return nil, fmt.Errorf("wallet %q: %w", p.preferred, err)
		}
		if !w.CanSign() {
			return nil, fmt.Errorf("%w: %s", wallet.ErrWatchOnly, w.Name)
		}
		return w, nil
	}
	if w := p.wallets.Default(); w != nil && w.CanSign() {
		return w, nil
	}
	list, err := p.wallets.List()
	if err != nil {
		return nil, err
	}
	for _, w := range list {
		if w.CanSign() {
			return w, nil
		}
	}
	return nil, nil
}

// keySigner builds, signs and broadcasts EIP-1559 transactions.
type keySigner struct {
	signer  *wallet.Signer
	backend chain.Backend
}

func (s *keySigner) Address() common.Address { return s.signer.Address() }

func (s *keySigner) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := s.signer.Address()

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting chain id: %w", err)
	}

	// Estimate gas. A revert here means the tx would fail on chain too.
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		if chain.IsRevert(err) {
			return common.Hash{}, fmt.Errorf("%w: %s", chain.ErrTransactionReverted, chain.RevertReason(err))
		}
		gas = config.GasLimitFallback
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas tip: %w", err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting latest header: %w", err)
	}
	feeCap := new(big.Int).Mul(tip, big.NewInt(2))
	if head.BaseFee != nil {
		feeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := s.signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed.Hash(), nil
}
