// Package provider adapts wallet providers to a single account/signing
// surface: an external wallet reached over JSON-RPC, or keys held locally in
// the OS keychain.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/Mohsinsiddi/w3token/internal/wallet"
)

var (
	// ErrProviderUnavailable means no wallet provider could be found.
	ErrProviderUnavailable = errors.New("no wallet provider available")
	// ErrUserRejected means the user declined an access or signing request.
	ErrUserRejected = errors.New("user rejected the request")
)

// Provider exposes the accounts of a wallet and signers bound to them.
type Provider interface {
	Name() string
	// Accounts returns the accounts already authorised. It never prompts.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks the user for access and may prompt.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Signer returns a transaction signer bound to account.
	Signer(account common.Address) (Signer, error)
	Close()
}

// Signer submits transactions on behalf of one account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// Options carries the collaborators Detect may need.
type Options struct {
	// Backend is the node connection used by the keystore provider.
	Backend chain.Backend
	// Wallets backs the keystore provider.
	Wallets *wallet.Manager
	// Consent asks the user to grant access to a local wallet.
	Consent ConsentFunc
	Logger  *zap.Logger
}

// Detect returns the provider selected by cfg. A missing or unreachable
// provider is reported as ErrProviderUnavailable.
func Detect(ctx context.Context, cfg *config.Config, opts Options) (Provider, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Provider {
	case config.ProviderRPC:
		url := cfg.WalletURL()
		if url == "" {
			return nil, fmt.Errorf("%w: provider_url is not set", ErrProviderUnavailable)
		}
		timeoutCtx, cancel := context.WithTimeout(ctx, config.ProviderDetectTimeout)
		defer cancel()
		p, err := DialRPC(timeoutCtx, url)
		if err != nil {
			log.Debug("rpc provider not reachable", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		log.Debug("rpc provider detected", zap.String("url", url))
		return p, nil

	case config.ProviderKeystore:
		if opts.Wallets == nil || opts.Backend == nil {
			return nil, fmt.Errorf("%w: keystore provider is not configured", ErrProviderUnavailable)
		}
		wallets, err := opts.Wallets.List()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		for _, w := range wallets {
			if w.CanSign() {
				log.Debug("keystore provider detected", zap.Int("wallets", len(wallets)))
				return NewKeystoreProvider(opts.Wallets, opts.Backend, opts.Consent, cfg.DefaultWallet), nil
			}
		}
		return nil, fmt.Errorf("%w: no signing wallets (add one with `w3token wallet add`)", ErrProviderUnavailable)

	case "":
		return nil, ErrProviderUnavailable
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderUnavailable, cfg.Provider)
}
