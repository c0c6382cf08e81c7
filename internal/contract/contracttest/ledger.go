// Package contracttest provides an in-memory token contract for tests. It
// answers calls by decoding calldata against the built-in token interface
// and applies mint, burn and transfer with OpenZeppelin semantics.
package contracttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/w3token/internal/chain"
	"github.com/Mohsinsiddi/w3token/internal/contract"
)

// Address is where the fake token is deployed.
var Address = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

var _ chain.Backend = (*Ledger)(nil)

// Ledger is a fake chain holding a single token. It satisfies chain.Backend.
type Ledger struct {
	abi abi.ABI

	mu       sync.Mutex
	name     string
	symbol   string
	decimals uint8
	owner    common.Address
	supply   *big.Int
	balances map[common.Address]*big.Int
	calls    map[string]int
	block    uint64
	nonces   map[common.Address]uint64
	pending  map[common.Hash]pendingTx
	receipts map[common.Hash]*types.Receipt
	manual   bool

	// CallHook runs before each view call is answered, outside the lock.
	CallHook func(method string)
	// CallErr, when set, fails every view call.
	CallErr error
	// SendErr, when set, fails every submission.
	SendErr error
}

type pendingTx struct {
	from common.Address
	data []byte
}

// NewLedger deploys a token owned by owner.
func NewLedger(owner common.Address, name, symbol string, decimals uint8) *Ledger {
	return &Ledger{
		abi:      contract.BuiltinDescriptor().ABI,
		name:     name,
		symbol:   symbol,
		decimals: decimals,
		owner:    owner,
		supply:   new(big.Int),
		balances: make(map[common.Address]*big.Int),
		calls:    make(map[string]int),
		nonces:   make(map[common.Address]uint64),
		pending:  make(map[common.Hash]pendingTx),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// Credit mints directly, bypassing access control.
func (l *Ledger) Credit(to common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
}

// Balance returns the current balance of account.
func (l *Ledger) Balance(account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceOf(account))
}

// Calls returns how many times a view or write method was invoked.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// SetAutoMine controls whether submissions are mined immediately. With
// auto-mining off, transactions stay pending until Mine or Drop.
func (l *Ledger) SetAutoMine(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manual = !on
}

// Mine executes all pending transactions.
func (l *Ledger) Mine() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for hash, p := range l.pending {
		l.execute(hash, p)
	}
	l.pending = make(map[common.Hash]pendingTx)
}

// Drop forgets a pending transaction.
func (l *Ledger) Drop(hash common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, hash)
}

// Signer returns a signer that submits as from.
func (l *Ledger) Signer(from common.Address) *Signer {
	return &Signer{ledger: l, from: from}
}

// Signer submits transactions to a Ledger.
type Signer struct {
	ledger *Ledger
	from   common.Address
}

func (s *Signer) Address() common.Address { return s.from }

func (s *Signer) SendTransaction(_ context.Context, to common.Address, data []byte) (common.Hash, error) {
	return s.ledger.submit(s.from, to, data)
}

// --- chain.Backend ---

func (l *Ledger) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || *msg.To != Address {
		return nil, nil
	}
	method, args, err := l.decode(msg.Data)
	if err != nil {
		return nil, err
	}
	if l.CallHook != nil {
		l.CallHook(method.Name)
	}
	if l.CallErr != nil {
		return nil, l.CallErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[method.Name]++
	switch method.Name {
	case "name":
		return method.Outputs.Pack(l.name)
	case "symbol":
		return method.Outputs.Pack(l.symbol)
	case "decimals":
		return method.Outputs.Pack(l.decimals)
	case "totalSupply":
		return method.Outputs.Pack(new(big.Int).Set(l.supply))
	case "owner":
		return method.Outputs.Pack(l.owner)
	case "balanceOf":
		return method.Outputs.Pack(new(big.Int).Set(l.balanceOf(args[0].(common.Address))))
	}
	return nil, fmt.Errorf("execution reverted: %s is not a view", method.Name)
}

func (l *Ledger) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (l *Ledger) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.pending[hash]; ok {
		return types.NewTx(&types.LegacyTx{To: &Address, Data: p.data}), true, nil
	}
	if _, ok := l.receipts[hash]; ok {
		return types.NewTx(&types.LegacyTx{To: &Address}), false, nil
	}
	return nil, false, ethereum.NotFound
}

func (l *Ledger) SendTransaction(context.Context, *types.Transaction) error {
	return errors.New("contracttest: raw transactions are not supported, use Ledger.Signer")
}

func (l *Ledger) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 60_000, nil
}

func (l *Ledger) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (l *Ledger) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(31337), nil
}

func (l *Ledger) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[account], nil
}

func (l *Ledger) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(l.block), BaseFee: big.NewInt(1_000_000_000)}, nil
}

// --- internal ---

func (l *Ledger) decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("execution reverted: no selector")
	}
	method, err := l.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %w", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %w", err)
	}
	return method, args, nil
}

func (l *Ledger) submit(from, to common.Address, data []byte) (common.Hash, error) {
	if l.SendErr != nil {
		return common.Hash{}, l.SendErr
	}
	if to != Address {
		return common.Hash{}, errors.New("contracttest: unknown contract")
	}
	if _, _, err := l.decode(data); err != nil {
		return common.Hash{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	nonce := l.nonces[from]
	l.nonces[from]++
	hash := crypto.Keccak256Hash(from.Bytes(), new(big.Int).SetUint64(nonce).Bytes(), data)
	p := pendingTx{from: from, data: append([]byte(nil), data...)}
	if l.manual {
		l.pending[hash] = p
		return hash, nil
	}
	l.execute(hash, p)
	return hash, nil
}

// execute applies a transaction and records its receipt. Callers hold mu.
func (l *Ledger) execute(hash common.Hash, p pendingTx) {
	l.block++
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(l.block),
		GasUsed:     50_000,
	}
	l.receipts[hash] = receipt

	method, args, err := l.decode(p.data)
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		return
	}
	l.calls[method.Name]++
	if !l.apply(p.from, method.Name, args) {
		receipt.Status = types.ReceiptStatusFailed
	}
}

func (l *Ledger) apply(from common.Address, method string, args []interface{}) bool {
	switch method {
	case "mint":
		to, amount := args[0].(common.Address), args[1].(*big.Int)
		if from != l.owner || to == (common.Address{}) {
			return false
		}
		l.credit(to, amount)
		return true

	case "burn":
		amount := args[0].(*big.Int)
		if l.balanceOf(from).Cmp(amount) < 0 {
			return false
		}
		l.balances[from] = new(big.Int).Sub(l.balanceOf(from), amount)
		l.supply = new(big.Int).Sub(l.supply, amount)
		return true

	case "transfer":
		to, amount := args[0].(common.Address), args[1].(*big.Int)
		if to == (common.Address{}) || l.balanceOf(from).Cmp(amount) < 0 {
			return false
		}
		l.balances[from] = new(big.Int).Sub(l.balanceOf(from), amount)
		l.balances[to] = new(big.Int).Add(l.balanceOf(to), amount)
		return true
	}
	return false
}

func (l *Ledger) credit(to common.Address, amount *big.Int) {
	l.balances[to] = new(big.Int).Add(l.balanceOf(to), amount)
	l.supply = new(big.Int).Add(l.supply, amount)
}

func (l *Ledger) balanceOf(account common.Address) *big.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(big.Int)
}
