// Package session holds what the client knows about the connected account
// and the token. Every change goes through a State operation; readers get an
// immutable Snapshot.
package session

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/units"
)

// Binding is a token contract bound to the session's account.
type Binding interface {
	Address() common.Address
	Account() common.Address
	Owner(ctx context.Context) (common.Address, error)
	Metadata(ctx context.Context) (contract.Metadata, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Mint(ctx context.Context, to common.Address, amount *big.Int) (*contract.Tx, error)
	Burn(ctx context.Context, amount *big.Int) (*contract.Tx, error)
	Transfer(ctx context.Context, recipient string, amount *big.Int) (*contract.Tx, error)
}

var _ Binding = (*contract.Token)(nil)

// Binder builds a binding whose writes are signed by account.
type Binder func(ctx context.Context, account common.Address) (Binding, error)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Account    common.Address
	Connected  bool
	Bound      bool
	Contract   common.Address
	Generation uint64

	// Metadata is nil until fetched for the current binding.
	Metadata *contract.Metadata
	// Balance is nil until fetched for the current binding.
	Balance *big.Int
	// OwnerKnown is false until the owner check completed.
	OwnerKnown bool
	IsOwner    bool
}

// BalanceText formats Balance with the token's decimals, or "" when unknown.
func (s Snapshot) BalanceText() string {
	if s.Balance == nil {
		return ""
	}
	if s.Metadata == nil {
		return s.Balance.String()
	}
	return units.FromBaseUnits(s.Balance, s.Metadata.Decimals)
}

// State is the session store. It is safe for concurrent use; the lock is
// never held across a network call.
type State struct {
	binder Binder
	log    *zap.Logger

	mu         sync.Mutex
	account    common.Address
	binding    Binding
	generation uint64
	metadata   *contract.Metadata
	balance    *big.Int
	ownerKnown bool
	isOwner    bool
}

// New creates an empty session.
func New(binder Binder, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	return &State{binder: binder, log: log}
}

// SetAccount switches the session to account. Everything derived from the
// previous account is discarded before the new binding is built. The zero
// address disconnects, and so does a binder failure.
func (s *State) SetAccount(ctx context.Context, account common.Address) error {
	s.mu.Lock()
	s.account = account
	s.binding = nil
	s.metadata = nil
	s.balance = nil
	s.ownerKnown = false
	s.isOwner = false
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if account == (common.Address{}) {
		s.log.Debug("session cleared")
		return nil
	}

	binding, err := s.binder(ctx, account)
	if err != nil {
		s.log.Error("binding contract failed", zap.String("account", account.Hex()), zap.Error(err))
		// An account without a binding cannot read or write; drop it.
		s.commit(gen, "account", func() { s.account = common.Address{} })
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.log.Debug("discarding stale binding", zap.String("account", account.Hex()))
		return nil
	}
	s.binding = binding
	s.log.Debug("contract bound",
		zap.String("account", account.Hex()),
		zap.String("contract", binding.Address().Hex()),
		zap.Uint64("generation", gen),
	)
	return nil
}

// current returns the binding and its generation, or nil when unbound.
func (s *State) current() (Binding, common.Address, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding, s.account, s.generation
}

// commit runs apply under the lock if gen is still current.
func (s *State) commit(gen uint64, what string, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.log.Debug("discarding stale result", zap.String("field", what), zap.Uint64("generation", gen))
		return
	}
	apply()
}

// RefreshMetadata fetches token metadata once per binding.
func (s *State) RefreshMetadata(ctx context.Context) error {
	s.mu.Lock()
	b, gen, have := s.binding, s.generation, s.metadata != nil
	s.mu.Unlock()
	if b == nil || have {
		return nil
	}

	m, err := b.Metadata(ctx)
	if err != nil {
		s.log.Warn("reading token metadata failed", zap.String("contract", b.Address().Hex()), zap.Error(err))
		return err
	}
	s.commit(gen, "metadata", func() {
		if s.metadata == nil {
			s.metadata = &m
		}
	})
	return nil
}

// RefreshBalance re-reads the account's balance.
func (s *State) RefreshBalance(ctx context.Context) error {
	b, account, gen := s.current()
	if b == nil {
		return nil
	}

	bal, err := b.BalanceOf(ctx, account)
	if err != nil {
		s.log.Warn("reading balance failed", zap.String("account", account.Hex()), zap.Error(err))
		return err
	}
	s.commit(gen, "balance", func() { s.balance = bal })
	return nil
}

// RefreshOwnerFlag compares the contract owner with the account.
func (s *State) RefreshOwnerFlag(ctx context.Context) error {
	b, account, gen := s.current()
	if b == nil {
		return nil
	}

	owner, err := b.Owner(ctx)
	if err != nil {
		s.log.Warn("reading owner failed", zap.String("contract", b.Address().Hex()), zap.Error(err))
		return err
	}
	isOwner := strings.EqualFold(account.Hex(), owner.Hex())
	s.commit(gen, "owner", func() {
		s.ownerKnown = true
		s.isOwner = isOwner
	})
	return nil
}

// RefreshAll refreshes metadata, the owner flag and the balance. A failure in
// one does not stop the others.
func (s *State) RefreshAll(ctx context.Context) error {
	return errors.Join(
		s.RefreshMetadata(ctx),
		s.RefreshOwnerFlag(ctx),
		s.RefreshBalance(ctx),
	)
}

// Binding returns the current binding and its generation. The binding is nil
// when no account is set.
func (s *State) Binding() (Binding, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding, s.generation
}

// IsOwner reports the last completed owner check.
func (s *State) IsOwner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerKnown && s.isOwner
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Account:    s.account,
		Connected:  s.account != (common.Address{}),
		Bound:      s.binding != nil,
		Generation: s.generation,
		OwnerKnown: s.ownerKnown,
		IsOwner:    s.isOwner,
	}
	if s.binding != nil {
		snap.Contract = s.binding.Address()
	}
	if s.metadata != nil {
		m := *s.metadata
		if m.TotalSupply != nil {
			m.TotalSupply = new(big.Int).Set(m.TotalSupply)
		}
		snap.Metadata = &m
	}
	if s.balance != nil {
		snap.Balance = new(big.Int).Set(s.balance)
	}
	return snap
}
