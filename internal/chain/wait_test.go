package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader replays receipt results in order; the last one repeats.
type scriptedReader struct {
	mu       sync.Mutex
	receipts []receiptResult
	txKnown  bool
	calls    int
}

type receiptResult struct {
	receipt *types.Receipt
	err     error
}

func (s *scriptedReader) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.receipts) {
		i = len(s.receipts) - 1
	}
	s.calls++
	return s.receipts[i].receipt, s.receipts[i].err
}

func (s *scriptedReader) TransactionByHash(_ context.Context, _ common.Hash) (*types.Transaction, bool, error) {
	if s.txKnown {
		return types.NewTx(&types.LegacyTx{}), true, nil
	}
	return nil, false, ethereum.NotFound
}

var _ ReceiptReader = (*scriptedReader)(nil)

var testHash = common.HexToHash("0x01")

func TestWaitMinedSuccess(t *testing.T) {
	r := &scriptedReader{receipts: []receiptResult{
		{err: ethereum.NotFound},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}},
	}, txKnown: true}

	receipt, err := WaitMined(context.Background(), r, testHash, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), receipt.BlockNumber.Uint64())
	assert.Equal(t, 2, r.calls)
}

func TestWaitMinedReverted(t *testing.T) {
	r := &scriptedReader{receipts: []receiptResult{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(9)}},
	}}

	receipt, err := WaitMined(context.Background(), r, testHash, time.Millisecond)
	require.ErrorIs(t, err, ErrTransactionReverted)
	require.NotNil(t, receipt, "reverted receipt is still returned")
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestWaitMinedDropped(t *testing.T) {
	r := &scriptedReader{receipts: []receiptResult{{err: ethereum.NotFound}}}

	_, err := WaitMined(context.Background(), r, testHash, time.Millisecond)
	require.ErrorIs(t, err, ErrTransactionDropped)
	assert.Equal(t, DroppedAfterPolls, r.calls)
}

func TestWaitMinedPendingIsNotDropped(t *testing.T) {
	// Known-but-pending transactions keep the wait alive until ctx ends.
	r := &scriptedReader{receipts: []receiptResult{{err: ethereum.NotFound}}, txKnown: true}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := WaitMined(ctx, r, testHash, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, r.calls, DroppedAfterPolls)
}

func TestWaitMinedRetriesNodeErrors(t *testing.T) {
	r := &scriptedReader{receipts: []receiptResult{
		{err: errors.New("502 bad gateway")},
		{err: errors.New("connection refused")},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(3)}},
	}}

	receipt, err := WaitMined(context.Background(), r, testHash, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), receipt.BlockNumber.Uint64())
	assert.Equal(t, 3, r.calls)
}

func TestWaitMinedNodeDownUntilContextEnds(t *testing.T) {
	r := &scriptedReader{receipts: []receiptResult{{err: errors.New("connection refused")}}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := WaitMined(ctx, r, testHash, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTransactionDropped)
}

func TestWaitMinedSimulatedBackend(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	sim := simulated.NewBackend(types.GenesisAlloc{from: {Balance: big.NewInt(1e18)}})
	defer sim.Close()
	client := sim.Client()

	ctx := context.Background()
	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)
	head, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	tip, err := client.SuggestGasTipCap(ctx)
	require.NoError(t, err)

	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     0,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2))),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(1),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))
	sim.Commit()

	receipt, err := WaitMined(ctx, client, signed.Hash(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, signed.Hash(), receipt.TxHash)
}

func TestIsRevertAndReason(t *testing.T) {
	err := errors.New("execution reverted: Ownable: caller is not the owner")
	assert.True(t, IsRevert(err))
	assert.Equal(t, "execution reverted: Ownable: caller is not the owner", RevertReason(err))

	assert.False(t, IsRevert(errors.New("connection refused")))
	assert.False(t, IsRevert(errors.New("execution timeout exceeded")))
	assert.False(t, IsRevert(nil))
	assert.Equal(t, "", RevertReason(nil))
	assert.Equal(t, "boom", RevertReason(errors.New("boom")))
}
