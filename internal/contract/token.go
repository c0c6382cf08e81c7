package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/units"
)

var (
	// ErrInvalidAddress is returned for a recipient that is not a valid
	// 20-byte hex address, or whose mixed-case checksum is wrong.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrReadOnly is returned by writes on a token bound without a signer.
	ErrReadOnly = errors.New("token is bound read-only")
)

// Signer submits transactions for one account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// Metadata is the token's descriptive state.
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// Supply returns TotalSupply formatted with Decimals.
func (m Metadata) Supply() string {
	return units.FromBaseUnits(m.TotalSupply, m.Decimals)
}

// Token is a binding to one deployed token contract.
type Token struct {
	address  common.Address
	desc     *Descriptor
	backend  chain.Backend
	signer   Signer
	interval time.Duration
}

// Option configures a Token.
type Option func(*Token)

// WithPollInterval sets how often Tx.Wait polls for a receipt.
func WithPollInterval(d time.Duration) Option {
	return func(t *Token) { t.interval = d }
}

// NewToken binds a token contract. signer may be nil for a read-only binding.
func NewToken(address common.Address, desc *Descriptor, backend chain.Backend, signer Signer, opts ...Option) *Token {
	t := &Token{
		address: address,
		desc:    desc,
		backend: backend,
		signer:  signer,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Address returns the contract address.
func (t *Token) Address() common.Address { return t.address }

// Account returns the signer's address, or the zero address when read-only.
func (t *Token) Account() common.Address {
	if t.signer == nil {
		return common.Address{}
	}
	return t.signer.Address()
}

// Descriptor returns the interface the token was bound with.
func (t *Token) Descriptor() *Descriptor { return t.desc }

// --- views ---

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, t, "owner")
}

func (t *Token) Name(ctx context.Context) (string, error) {
	return callOne[string](ctx, t, "name")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, t, "symbol")
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return callOne[uint8](ctx, t, "decimals")
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, t, "totalSupply")
}

// BalanceOf returns account's balance in base units.
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t, "balanceOf", account)
}

// Metadata reads name, symbol, decimals and total supply.
func (t *Token) Metadata(ctx context.Context) (Metadata, error) {
	var (
		m   Metadata
		err error
	)
	if m.Name, err = t.Name(ctx); err != nil {
		return Metadata{}, err
	}
	if m.Symbol, err = t.Symbol(ctx); err != nil {
		return Metadata{}, err
	}
	if m.Decimals, err = t.Decimals(ctx); err != nil {
		return Metadata{}, err
	}
	if m.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func (t *Token) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := t.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}

	msg := ethereum.CallMsg{From: t.Account(), To: &t.address, Data: data}
	out, err := t.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("calling %s: empty result (is %s a contract on this network?)", method, t.address.Hex())
	}

	values, err := t.desc.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return values, nil
}

func callOne[T any](ctx context.Context, t *Token, method string, args ...interface{}) (T, error) {
	var zero T
	values, err := t.call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("decoding %s: expected 1 output, got %d", method, len(values))
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("decoding %s: unexpected output type %T", method, values[0])
	}
	return v, nil
}

// --- writes ---

// Mint submits mint(to, amount).
func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) (*Tx, error) {
	return t.transact(ctx, "mint", to, amount)
}

// Burn submits burn(amount) from the signer's balance.
func (t *Token) Burn(ctx context.Context, amount *big.Int) (*Tx, error) {
	return t.transact(ctx, "burn", amount)
}

// Transfer parses recipient and submits transfer(recipient, amount).
func (t *Token) Transfer(ctx context.Context, recipient string, amount *big.Int) (*Tx, error) {
	to, err := ParseAddress(recipient)
	if err != nil {
		return nil, err
	}
	return t.transact(ctx, "transfer", to, amount)
}

func (t *Token) transact(ctx context.Context, method string, args ...interface{}) (*Tx, error) {
	if t.signer == nil {
		return nil, ErrReadOnly
	}
	data, err := t.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	hash, err := t.signer.SendTransaction(ctx, t.address, data)
	if err != nil {
		return nil, fmt.Errorf("submitting %s: %w", method, err)
	}
	return &Tx{hash: hash, reader: t.backend, interval: t.interval}, nil
}

// ParseAddress parses a user-supplied hex address. All-lower and all-upper
// hex is accepted as is; mixed case must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}
