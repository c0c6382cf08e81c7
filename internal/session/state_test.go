package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3token/internal/contract"
	"github.com/Mohsinsiddi/w3token/internal/contract/contracttest"
	"github.com/Mohsinsiddi/w3token/internal/units"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func ledgerBinder(ledger *contracttest.Ledger, binds *int) Binder {
	return func(_ context.Context, account common.Address) (Binding, error) {
		if binds != nil {
			*binds++
		}
		return contract.NewToken(contracttest.Address, contract.BuiltinDescriptor(), ledger, ledger.Signer(account)), nil
	}
}

func newState(t *testing.T) (*contracttest.Ledger, *State) {
	t.Helper()
	ledger := contracttest.NewLedger(owner, "Test Token", "TT", 18)
	return ledger, New(ledgerBinder(ledger, nil), nil)
}

func TestRefreshWithoutBindingIsNoop(t *testing.T) {
	ledger, s := newState(t)
	ctx := context.Background()

	require.NoError(t, s.RefreshMetadata(ctx))
	require.NoError(t, s.RefreshBalance(ctx))
	require.NoError(t, s.RefreshOwnerFlag(ctx))
	require.NoError(t, s.RefreshAll(ctx))

	assert.Zero(t, ledger.Calls("name")+ledger.Calls("balanceOf")+ledger.Calls("owner"))
	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.False(t, snap.Bound)
	assert.Nil(t, snap.Metadata)
	assert.Nil(t, snap.Balance)
}

func TestSetAccountAndRefreshAll(t *testing.T) {
	ledger, s := newState(t)
	ledger.Credit(owner, units.MustToBaseUnits("25", 18))
	ctx := context.Background()

	require.NoError(t, s.SetAccount(ctx, owner))
	require.NoError(t, s.RefreshAll(ctx))

	snap := s.Snapshot()
	assert.True(t, snap.Connected)
	assert.True(t, snap.Bound)
	assert.Equal(t, contracttest.Address, snap.Contract)
	require.NotNil(t, snap.Metadata)
	assert.Equal(t, "Test Token", snap.Metadata.Name)
	assert.Equal(t, "25.0", snap.Metadata.Supply())
	assert.Equal(t, "25.0", snap.BalanceText())
	assert.True(t, snap.OwnerKnown)
	assert.True(t, snap.IsOwner)
	assert.True(t, s.IsOwner())
}

func TestOwnerFlagIgnoresHexCase(t *testing.T) {
	lower := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	_, s := newState(t)

	require.NoError(t, s.SetAccount(context.Background(), lower))
	require.NoError(t, s.RefreshOwnerFlag(context.Background()))
	assert.True(t, s.Snapshot().IsOwner)

	require.NoError(t, s.SetAccount(context.Background(), alice))
	require.NoError(t, s.RefreshOwnerFlag(context.Background()))
	assert.False(t, s.Snapshot().IsOwner)
	assert.True(t, s.Snapshot().OwnerKnown)
}

func TestMetadataFetchedOncePerBinding(t *testing.T) {
	ledger, s := newState(t)
	ctx := context.Background()

	require.NoError(t, s.SetAccount(ctx, owner))
	require.NoError(t, s.RefreshMetadata(ctx))
	require.NoError(t, s.RefreshMetadata(ctx))
	assert.Equal(t, 1, ledger.Calls("name"))

	require.NoError(t, s.SetAccount(ctx, alice))
	assert.Nil(t, s.Snapshot().Metadata, "switching account discards metadata")
	require.NoError(t, s.RefreshMetadata(ctx))
	assert.Equal(t, 2, ledger.Calls("name"))
}

func TestRefreshBalanceAlwaysRefetches(t *testing.T) {
	ledger, s := newState(t)
	ctx := context.Background()
	require.NoError(t, s.SetAccount(ctx, alice))

	require.NoError(t, s.RefreshBalance(ctx))
	assert.Equal(t, big.NewInt(0), s.Snapshot().Balance)

	ledger.Credit(alice, big.NewInt(42))
	require.NoError(t, s.RefreshBalance(ctx))
	assert.Equal(t, big.NewInt(42), s.Snapshot().Balance)
	assert.Equal(t, "42", s.Snapshot().BalanceText(), "raw units until metadata is known")
	assert.Equal(t, 2, ledger.Calls("balanceOf"))
}

func TestSetAccountDiscardsDerivedState(t *testing.T) {
	ledger, s := newState(t)
	ledger.Credit(owner, big.NewInt(7))
	ctx := context.Background()

	require.NoError(t, s.SetAccount(ctx, owner))
	require.NoError(t, s.RefreshAll(ctx))
	gen := s.Snapshot().Generation

	require.NoError(t, s.SetAccount(ctx, alice))
	snap := s.Snapshot()
	assert.Equal(t, alice, snap.Account)
	assert.Greater(t, snap.Generation, gen)
	assert.Nil(t, snap.Balance)
	assert.Nil(t, snap.Metadata)
	assert.False(t, snap.OwnerKnown)
	assert.False(t, snap.IsOwner)

	b, _ := s.Binding()
	require.NotNil(t, b)
	assert.Equal(t, alice, b.Account(), "writes are signed by the new account")
}

func TestSetZeroAccountClears(t *testing.T) {
	_, s := newState(t)
	ctx := context.Background()
	require.NoError(t, s.SetAccount(ctx, owner))
	require.NoError(t, s.RefreshAll(ctx))

	require.NoError(t, s.SetAccount(ctx, common.Address{}))
	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.False(t, snap.Bound)
	assert.False(t, snap.IsOwner)
	b, _ := s.Binding()
	assert.Nil(t, b)
}

func TestStaleBalanceIsDiscarded(t *testing.T) {
	ledger, s := newState(t)
	ledger.Credit(owner, big.NewInt(1000))
	ctx := context.Background()
	require.NoError(t, s.SetAccount(ctx, owner))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	ledger.CallHook = func(method string) {
		if method != "balanceOf" {
			return
		}
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan error)
	go func() { done <- s.RefreshBalance(ctx) }()

	<-entered
	require.NoError(t, s.SetAccount(ctx, alice))
	close(release)
	require.NoError(t, <-done, "stale results are dropped without error")

	snap := s.Snapshot()
	assert.Equal(t, alice, snap.Account)
	assert.Nil(t, snap.Balance, "owner's balance must not appear under alice")
}

func TestBinderErrorDisconnects(t *testing.T) {
	s := New(func(context.Context, common.Address) (Binding, error) {
		return nil, errors.New("no signer")
	}, nil)

	err := s.SetAccount(context.Background(), alice)
	require.Error(t, err)
	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.False(t, snap.Bound)
	assert.Equal(t, common.Address{}, snap.Account)
	require.NoError(t, s.RefreshAll(context.Background()))
}

func TestViewFailureKeepsPreviousValues(t *testing.T) {
	ledger, s := newState(t)
	ledger.Credit(alice, big.NewInt(5))
	ctx := context.Background()
	require.NoError(t, s.SetAccount(ctx, alice))
	require.NoError(t, s.RefreshAll(ctx))

	ledger.CallErr = errors.New("node down")
	ledger.Credit(alice, big.NewInt(5))
	err := s.RefreshAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node down")

	snap := s.Snapshot()
	assert.Equal(t, big.NewInt(5), snap.Balance)
	require.NotNil(t, snap.Metadata)
	assert.True(t, snap.OwnerKnown)
}

func TestSnapshotIsACopy(t *testing.T) {
	ledger, s := newState(t)
	ledger.Credit(alice, big.NewInt(5))
	ctx := context.Background()
	require.NoError(t, s.SetAccount(ctx, alice))
	require.NoError(t, s.RefreshAll(ctx))

	snap := s.Snapshot()
	snap.Balance.SetInt64(999)
	snap.Metadata.TotalSupply.SetInt64(999)

	again := s.Snapshot()
	assert.Equal(t, big.NewInt(5), again.Balance)
	assert.Equal(t, big.NewInt(5), again.Metadata.TotalSupply)
}

func TestSetAccountRebindsEachTime(t *testing.T) {
	ledger := contracttest.NewLedger(owner, "T", "T", 18)
	binds := 0
	s := New(ledgerBinder(ledger, &binds), nil)

	require.NoError(t, s.SetAccount(context.Background(), owner))
	require.NoError(t, s.SetAccount(context.Background(), owner))
	assert.Equal(t, 2, binds)
}
