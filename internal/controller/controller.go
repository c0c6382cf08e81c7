// Package controller turns user commands into provider, contract and session
// operations and reports each transaction's progress.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/provider"
	"github.com/Mohsinsiddi/w3token/internal/session"
	"github.com/Mohsinsiddi/w3token/internal/units"
)

var (
	ErrUnauthorized = errors.New("only the contract owner can mint")
	ErrNotConnected = errors.New("no account connected")
	ErrNoAccounts   = errors.New("wallet returned no accounts")
)

// Action names a mutating command.
type Action string

const (
	ActionMint     Action = "mint"
	ActionBurn     Action = "burn"
	ActionTransfer Action = "transfer"
)

// Status is where a transaction is in its life.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitted
	StatusConfirmed
	StatusReverted
	StatusDropped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitted:
		return "submitted"
	case StatusConfirmed:
		return "confirmed"
	case StatusReverted:
		return "reverted"
	case StatusDropped:
		return "dropped"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the result of a mutating command.
type Outcome struct {
	Action  Action
	Status  Status
	Hash    common.Hash
	Receipt *types.Receipt
}

// Observer is told about every status change. Hash is zero until submitted.
type Observer func(action Action, status Status, hash common.Hash)

// Controller runs user commands against one session.
type Controller struct {
	provider provider.Provider
	state    *session.State
	log      *zap.Logger
	observer Observer
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// New creates a controller. p may be nil when no provider was detected.
func New(p provider.Provider, state *session.State, opts ...Option) *Controller {
	c := &Controller{provider: p, state: state, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the session the controller writes to.
func (c *Controller) State() *session.State { return c.state }

// HasProvider reports whether a wallet provider is available.
func (c *Controller) HasProvider() bool { return c.provider != nil }

// Init restores an already authorised account without prompting.
func (c *Controller) Init(ctx context.Context) error {
	if c.provider == nil {
		return provider.ErrProviderUnavailable
	}
	accounts, err := c.provider.Accounts(ctx)
	if err != nil {
		c.log.Warn("account discovery failed", zap.Error(err))
		return err
	}
	if len(accounts) == 0 {
		c.log.Debug("no authorised accounts")
		return nil
	}
	return c.bind(ctx, accounts[0])
}

// Connect asks the provider for access and binds the first account.
func (c *Controller) Connect(ctx context.Context) (common.Address, error) {
	if c.provider == nil {
		return common.Address{}, provider.ErrProviderUnavailable
	}
	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		c.log.Warn("connect failed", zap.Error(err))
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		c.log.Warn("connect failed", zap.Error(ErrNoAccounts))
		return common.Address{}, ErrNoAccounts
	}
	return accounts[0], c.bind(ctx, accounts[0])
}

func (c *Controller) bind(ctx context.Context, account common.Address) error {
	c.log.Info("account connected", zap.String("account", account.Hex()))
	if err := c.state.SetAccount(ctx, account); err != nil {
		return err
	}
	return c.state.RefreshAll(ctx)
}

// Refresh re-reads everything shown for the current account.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.state.RefreshAll(ctx)
}

// Mint mints amount tokens to the connected account. Only the owner may mint;
// for anyone else nothing is sent.
func (c *Controller) Mint(ctx context.Context, amount string) (Outcome, error) {
	b, err := c.binding()
	if err != nil {
		return c.fail(ActionMint, err)
	}
	if !c.state.Snapshot().OwnerKnown {
		if err := c.state.RefreshOwnerFlag(ctx); err != nil {
			return c.fail(ActionMint, err)
		}
	}
	if !c.state.IsOwner() {
		return c.fail(ActionMint, ErrUnauthorized)
	}
	value, err := c.parseAmount(ctx, amount)
	if err != nil {
		return c.fail(ActionMint, err)
	}
	return c.run(ctx, ActionMint, func() (*contract.Tx, error) {
		return b.Mint(ctx, b.Account(), value)
	})
}

// Burn burns amount tokens from the connected account.
func (c *Controller) Burn(ctx context.Context, amount string) (Outcome, error) {
	b, err := c.binding()
	if err != nil {
		return c.fail(ActionBurn, err)
	}
	value, err := c.parseAmount(ctx, amount)
	if err != nil {
		return c.fail(ActionBurn, err)
	}
	return c.run(ctx, ActionBurn, func() (*contract.Tx, error) {
		return b.Burn(ctx, value)
	})
}

// Transfer sends amount tokens to recipient. recipient is validated by the
// contract binding.
func (c *Controller) Transfer(ctx context.Context, recipient, amount string) (Outcome, error) {
	b, err := c.binding()
	if err != nil {
		return c.fail(ActionTransfer, err)
	}
	value, err := c.parseAmount(ctx, amount)
	if err != nil {
		return c.fail(ActionTransfer, err)
	}
	return c.run(ctx, ActionTransfer, func() (*contract.Tx, error) {
		return b.Transfer(ctx, recipient, value)
	})
}

func (c *Controller) binding() (session.Binding, error) {
	b, _ := c.state.Binding()
	if b == nil {
		return nil, ErrNotConnected
	}
	return b, nil
}

// parseAmount converts a decimal string using the token's decimals.
func (c *Controller) parseAmount(ctx context.Context, amount string) (*big.Int, error) {
	if c.state.Snapshot().Metadata == nil {
		if err := c.state.RefreshMetadata(ctx); err != nil {
			return nil, fmt.Errorf("reading decimals: %w", err)
		}
	}
	meta := c.state.Snapshot().Metadata
	if meta == nil {
		return nil, ErrNotConnected
	}
	return units.ToBaseUnits(amount, meta.Decimals)
}

func (c *Controller) fail(action Action, err error) (Outcome, error) {
	c.log.Warn("action rejected", zap.String("action", string(action)), zap.Error(err))
	return Outcome{Action: action, Status: StatusIdle}, err
}

func (c *Controller) notify(out Outcome) {
	if c.observer != nil {
		c.observer(out.Action, out.Status, out.Hash)
	}
}

// run submits, waits for the receipt and refreshes the balance on success.
func (c *Controller) run(ctx context.Context, action Action, submit func() (*contract.Tx, error)) (Outcome, error) {
	out := Outcome{Action: action, Status: StatusIdle}
	c.notify(out)

	tx, err := submit()
	if err != nil {
		if errors.Is(err, chain.ErrTransactionReverted) {
			out.Status = StatusReverted
			c.notify(out)
		}
		c.log.Error("submit failed",
			zap.String("action", string(action)),
			zap.Stringer("status", out.Status),
			zap.Error(err),
		)
		return out, err
	}

	out.Status = StatusSubmitted
	out.Hash = tx.Hash()
	c.notify(out)
	c.log.Info("transaction submitted", zap.String("action", string(action)), zap.String("tx", out.Hash.Hex()))

	receipt, err := tx.Wait(ctx)
	out.Receipt = receipt
	switch {
	case err == nil:
		out.Status = StatusConfirmed
	case errors.Is(err, chain.ErrTransactionReverted):
		out.Status = StatusReverted
	case ctx.Err() != nil:
		// Interrupted while waiting; the transaction may still be mined.
		c.log.Warn("stopped waiting", zap.String("action", string(action)), zap.String("tx", out.Hash.Hex()), zap.Error(err))
		return out, err
	default:
		out.Status = StatusDropped
	}
	c.notify(out)

	if out.Status != StatusConfirmed {
		c.log.Error("transaction failed",
			zap.String("action", string(action)),
			zap.String("tx", out.Hash.Hex()),
			zap.Stringer("status", out.Status),
			zap.Error(err),
		)
		return out, err
	}

	c.log.Info("transaction confirmed",
		zap.String("action", string(action)),
		zap.String("tx", out.Hash.Hex()),
		zap.Stringer("block", receipt.BlockNumber),
	)
	if err := c.state.RefreshBalance(ctx); err != nil {
		c.log.Warn("balance refresh after confirmation failed", zap.Error(err))
	}
	return out, nil
}
