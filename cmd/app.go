package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/controller"
	"github.com/Mohsinsiddi/w3token/internal/logging"
	"github.com/Mohsinsiddi/w3token/internal/provider"
	"github.com/Mohsinsiddi/w3token/internal/session"
	"github.com/Mohsinsiddi/w3token/internal/ui"
	"github.com/Mohsinsiddi/w3token/internal/wallet"
)

// app is everything one command needs to talk to the token.
type app struct {
	deployment *config.Deployment
	client     *ethclient.Client
	provider   provider.Provider
	ctrl       *controller.Controller
}

type appOptions struct {
	observer controller.Observer
	consent  provider.ConsentFunc
}

// newApp resolves the deployment, dials the node, detects a wallet provider
// and builds the session and controller on top of them. A missing provider is
// not an error: the controller is built without one.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	logger := logging.FromContext(ctx)

	dep, err := cfg.ActiveDeployment(deploymentName)
	if err != nil {
		return nil, err
	}
	contractAddr, err := contract.ParseAddress(dep.Contract)
	if err != nil {
		return nil, fmt.Errorf("deployment %q: contract %w", dep.Name, err)
	}
	desc, err := loadDescriptor(dep)
	if err != nil {
		return nil, err
	}
	if missing := desc.Missing(contract.RequiredFunctions); len(missing) > 0 {
		logger.Warn("descriptor is missing functions",
			zap.String("source", desc.Source),
			zap.Strings("missing", missing),
		)
	}

	client, err := chain.Dial(ctx, dep.RPCURL)
	if err != nil {
		return nil, err
	}

	if opts.consent == nil {
		opts.consent = promptConsent
	}
	p, err := provider.Detect(ctx, cfg, provider.Options{
		Backend: client,
		Wallets: newWalletManager(),
		Consent: opts.consent,
		Logger:  logger,
	})
	if err != nil {
		logger.Info("no wallet provider", zap.Error(err))
		p = nil
	}

	binder := func(ctx context.Context, account common.Address) (session.Binding, error) {
		var signer contract.Signer
		if p != nil {
			s, err := p.Signer(account)
			if err != nil {
				return nil, err
			}
			signer = s
		}
		return contract.NewToken(contractAddr, desc, client, signer,
			contract.WithPollInterval(cfg.PollInterval()),
		), nil
	}

	state := session.New(binder, logger.With(zap.String("contract", contractAddr.Hex())))
	ctrlOpts := []controller.Option{controller.WithLogger(logger)}
	if opts.observer != nil {
		ctrlOpts = append(ctrlOpts, controller.WithObserver(opts.observer))
	}

	return &app{
		deployment: dep,
		client:     client,
		provider:   p,
		ctrl:       controller.New(p, state, ctrlOpts...),
	}, nil
}

// Close releases the node and provider connections.
func (a *app) Close() {
	if a.provider != nil {
		a.provider.Close()
	}
	a.client.Close()
}

func (a *app) providerName() string {
	if a.provider == nil {
		return ""
	}
	return a.provider.Name()
}

// ensureConnected restores an authorised account, asking for access when
// there is none.
func (a *app) ensureConnected(ctx context.Context) error {
	if err := a.ctrl.Init(ctx); err != nil {
		return err
	}
	if a.ctrl.State().Snapshot().Connected {
		return nil
	}
	_, err := a.ctrl.Connect(ctx)
	return err
}

func loadDescriptor(dep *config.Deployment) (*contract.Descriptor, error) {
	if dep.Artifact == "" {
		return contract.BuiltinDescriptor(), nil
	}
	return contract.LoadDescriptor(dep.Artifact)
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(wallet.DefaultKeystore(cfg.Dir(), keyring.TerminalPrompt)),
	)
}

func promptConsent(_ context.Context, w *wallet.Wallet) (bool, error) {
	return ui.Confirm(fmt.Sprintf("Allow w3token to use wallet %q (%s)?", w.Name, w.Address)), nil
}

// grantConsent approves access without prompting. The interactive page
// only asks for accounts after the user pressed connect.
func grantConsent(context.Context, *wallet.Wallet) (bool, error) {
	return true, nil
}

// describeError adds a next step to errors the user can act on.
func describeError(err error) string {
	switch {
	case errors.Is(err, provider.ErrProviderUnavailable):
		return err.Error() + "\n" + ui.Hint("Set provider_url or add a keystore wallet: w3token config set provider keystore")
	case errors.Is(err, provider.ErrUserRejected):
		return "request rejected in the wallet"
	case errors.Is(err, controller.ErrUnauthorized):
		return err.Error() + "\n" + ui.Hint("Switch to the owner account to mint.")
	}
	return err.Error()
}
