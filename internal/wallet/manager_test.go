package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWithKeyDerivesAddress(t *testing.T) {
	m := NewManager(WithInMemoryStore())

	require.NoError(t, m.AddWithKey("deployer", "0x"+testPrivKeyHex))

	w, err := m.Get("deployer")
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, w.Address)
	assert.Equal(t, TypeSigning, w.Type)
	assert.True(t, w.CanSign())
	assert.NotEmpty(t, w.CreatedAt)

	stored, err := m.KeyStore().Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, stored, "0x prefix is stripped before storing")
}

func TestAddWithKeyRejectsBadKey(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	err := m.AddWithKey("bad", "0xnothex")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = m.Get("bad")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestAddDuplicate(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	require.NoError(t, m.AddWatchOnly("w", testSignerAddr))
	assert.ErrorIs(t, m.AddWatchOnly("w", testSignerAddr), ErrWalletExists)
	assert.ErrorIs(t, m.AddWithKey("w", testPrivKeyHex), ErrWalletExists)
}

func TestAddWatchOnly(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	require.NoError(t, m.AddWatchOnly("watch", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))

	w, err := m.Get("watch")
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, w.Address, "address is stored checksummed")
	assert.False(t, w.CanSign())

	assert.ErrorIs(t, m.AddWatchOnly("x", "0x1234"), ErrInvalidAddress)
}

func TestByAddressIgnoresCase(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	require.NoError(t, m.AddWithKey("deployer", testPrivKeyHex))

	w, err := m.ByAddress(common.HexToAddress("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266"))
	require.NoError(t, err)
	assert.Equal(t, "deployer", w.Name)

	_, err = m.ByAddress(common.Address{})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestRemoveDeletesKey(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	require.NoError(t, m.AddWithKey("deployer", testPrivKeyHex))
	w, _ := m.Get("deployer")

	require.NoError(t, m.Remove("deployer"))
	_, err := m.KeyStore().Retrieve(w.KeyRef)
	assert.Error(t, err)
	assert.ErrorIs(t, m.Remove("deployer"), ErrWalletNotFound)
}

func TestDefaultWallet(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	assert.Nil(t, m.Default())

	require.NoError(t, m.AddWatchOnly("a", "0x0000000000000000000000000000000000000001"))
	require.NotNil(t, m.Default(), "single wallet is the implicit default")
	assert.Equal(t, "a", m.Default().Name)

	require.NoError(t, m.AddWatchOnly("b", "0x0000000000000000000000000000000000000002"))
	assert.Nil(t, m.Default())

	require.NoError(t, m.SetDefault("b"))
	assert.Equal(t, "b", m.Default().Name)
	assert.ErrorIs(t, m.SetDefault("zzz"), ErrWalletNotFound)
}

func TestListSorted(t *testing.T) {
	m := NewManager(WithInMemoryStore())
	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, m.AddWatchOnly(name, testSignerAddr))
	}
	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestJSONStorePersistsAcrossManagers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ks := NewInMemoryKeystore()

	m := NewManager(WithStore(NewJSONStore(path)), WithKeyStore(ks))
	require.NoError(t, m.AddWithKey("deployer", testPrivKeyHex))
	require.NoError(t, m.SetDefault("deployer"))

	m2 := NewManager(WithStore(NewJSONStore(path)), WithKeyStore(ks))
	w := m2.Default()
	require.NotNil(t, w)
	assert.Equal(t, testSignerAddr, w.Address)
	assert.True(t, w.IsDefault)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestJSONStoreLoad(t *testing.T) {
	dir := t.TempDir()

	wallets, err := NewJSONStore(filepath.Join(dir, "missing.json")).Load()
	require.NoError(t, err)
	assert.Nil(t, wallets, "loading a missing file should return nil, nil")

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not valid json"), 0o600))
	_, err = NewJSONStore(corrupt).Load()
	require.Error(t, err)
}
