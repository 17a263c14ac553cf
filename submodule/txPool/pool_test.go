package txPool

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/backend/keystore"
	"github.com/memoio/go-betawallet/lib/backend/kv"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/submodule/state"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

type env struct {
	ctx     context.Context
	cancel  context.CancelFunc
	pp      *PushPool
	sm      *state.StateMgr
	w       *wallet.LocalWallet
	owner   address.Address
	signers []address.Address
}

func newEnv(t *testing.T, k uint32, n int) *env {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ds, err := kv.NewMemStore()
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	ks, err := keystore.NewKeyRepo(t.TempDir(), keystore.LightScrypt())
	require.NoError(t, err)
	w := wallet.New("pw", ks)

	e := &env{ctx: ctx, cancel: cancel, w: w}
	e.owner, err = w.WalletNew(types.Secp256k1)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		a, err := w.WalletNew(types.Secp256k1)
		require.NoError(t, err)
		e.signers = append(e.signers, a)
	}

	e.sm, err = state.NewStateMgr(ds, &types.WalletGenesis{Owner: e.owner, Signers: e.signers, Threshold: k})
	require.NoError(t, err)

	ts, err := tx.NewTxStore(ds)
	require.NoError(t, err)

	ip := NewInPool(ctx, e.sm, ts)
	ip.Start()
	e.pp = NewPushPool(ip, w)

	return e
}

func params(t *testing.T, p interface{ Serialize() ([]byte, error) }) []byte {
	b, err := p.Serialize()
	require.NoError(t, err)
	return b
}

func TestPushFlow(t *testing.T) {
	e := newEnv(t, 2, 3)

	r, err := e.pp.AddMessage(e.ctx, e.owner, tx.Deposit, params(t, &tx.AmountParams{Amount: big.NewInt(500)}))
	require.NoError(t, err)
	require.NoError(t, r.Error())
	require.Equal(t, uint64(1), r.Height)

	r, err = e.pp.AddMessage(e.ctx, e.signers[0], tx.ProposeTx, params(t, &tx.ProposeParams{
		Kind:    types.TxTransfer,
		Payload: types.Payload{Beneficiary: e.owner, Amount: big.NewInt(100)},
	}))
	require.NoError(t, err)
	require.NoError(t, r.Error())
	id := r.TxID
	require.Equal(t, uint64(1), id)

	r, err = e.pp.AddMessage(e.ctx, e.signers[0], tx.SignTx, params(t, &tx.TxIDParams{ID: id}))
	require.NoError(t, err)
	require.NoError(t, r.Error())
	require.Equal(t, uint8(types.TxPending), r.Status)

	// domain failure is reported in the receipt
	r, err = e.pp.AddMessage(e.ctx, e.signers[0], tx.SignTx, params(t, &tx.TxIDParams{ID: id}))
	require.NoError(t, err)
	require.ErrorIs(t, r.Error(), types.ErrAlreadySigned)

	r, err = e.pp.AddMessage(e.ctx, e.signers[1], tx.SignTx, params(t, &tx.TxIDParams{ID: id}))
	require.NoError(t, err)
	require.NoError(t, r.Error())
	require.Equal(t, uint8(types.TxExecuted), r.Status)
	require.Equal(t, int64(400), e.sm.GetBalance(types.NativeCurrency).Int64())

	got, err := e.pp.GetReceipt(r.MsgID)
	require.NoError(t, err)
	require.Equal(t, r.Height, got.Height)
	require.Equal(t, uint64(5), e.pp.Height())
}

func TestConcurrentPush(t *testing.T) {
	e := newEnv(t, 2, 6)

	_, err := e.pp.AddMessage(e.ctx, e.owner, tx.Deposit, params(t, &tx.AmountParams{Amount: big.NewInt(100)}))
	require.NoError(t, err)

	r, err := e.pp.AddMessage(e.ctx, e.signers[0], tx.ProposeTx, params(t, &tx.ProposeParams{
		Kind:    types.TxTransfer,
		Payload: types.Payload{Beneficiary: e.owner, Amount: big.NewInt(100)},
	}))
	require.NoError(t, err)
	id := r.TxID

	receipts := make([]*tx.Receipt, len(e.signers))
	var eg errgroup.Group
	for i := range e.signers {
		i := i
		eg.Go(func() error {
			r, err := e.pp.AddMessage(e.ctx, e.signers[i], tx.SignTx, params(t, &tx.TxIDParams{ID: id}))
			receipts[i] = r
			return err
		})
	}
	require.NoError(t, eg.Wait())

	executed, ok := 0, 0
	for _, r := range receipts {
		if r.Err == types.CodeOK {
			ok++
			if r.Status == uint8(types.TxExecuted) {
				executed++
			}
		} else {
			require.ErrorIs(t, r.Error(), types.ErrAlreadyExecuted)
		}
	}
	require.Equal(t, 2, ok)
	require.Equal(t, 1, executed)
	require.Equal(t, int64(0), e.sm.GetBalance(types.NativeCurrency).Int64())
}

func TestVerify(t *testing.T) {
	e := newEnv(t, 1, 1)

	m := tx.NewMessage()
	m.From = e.signers[0]
	m.Method = tx.Deposit
	m.Params = params(t, &tx.AmountParams{Amount: big.NewInt(1)})

	sm := &tx.SignedMessage{Message: m}
	mid, err := sm.Hash()
	require.NoError(t, err)

	// signed by someone else
	sig, err := e.w.WalletSign(e.owner, mid.Bytes())
	require.NoError(t, err)
	sm.Signature = types.Signature{Type: types.SigSecp256k1, Data: sig}

	_, err = e.pp.Push(e.ctx, sm)
	require.ErrorIs(t, err, types.ErrInvalidSign)

	sig, err = e.w.WalletSign(e.signers[0], mid.Bytes())
	require.NoError(t, err)
	sm.Signature.Data = sig

	r, err := e.pp.Push(e.ctx, sm)
	require.NoError(t, err)
	require.NoError(t, r.Error())

	// replay
	_, err = e.pp.Push(e.ctx, sm)
	require.ErrorIs(t, err, types.ErrLowNonce)
}

func TestNotStarted(t *testing.T) {
	ip := NewInPool(context.Background(), nil, nil)
	_, err := ip.Push(context.Background(), &tx.SignedMessage{})
	require.ErrorIs(t, err, ErrNotReady)
}

func TestCancelledPushKeepsNonce(t *testing.T) {
	e := newEnv(t, 1, 1)
	deposit := params(t, &tx.AmountParams{Amount: big.NewInt(1)})

	for i := 0; i < 20; i++ {
		cctx, cancel := context.WithCancel(e.ctx)
		cancel()
		_, err := e.pp.AddMessage(cctx, e.owner, tx.Deposit, deposit)
		require.ErrorIs(t, err, context.Canceled)

		// the next push from the same account still lines up with state
		r, err := e.pp.AddMessage(e.ctx, e.owner, tx.Deposit, deposit)
		require.NoError(t, err, "round %d", i)
		require.NoError(t, r.Error())
	}

	nonce, err := e.sm.GetNonce(e.owner)
	require.NoError(t, err)
	require.Equal(t, uint64(20), nonce)
	require.Equal(t, int64(20), e.sm.GetBalance(types.NativeCurrency).Int64())
}

func TestPushAfterClose(t *testing.T) {
	e := newEnv(t, 1, 1)
	deposit := params(t, &tx.AmountParams{Amount: big.NewInt(1)})

	_, err := e.pp.AddMessage(e.ctx, e.owner, tx.Deposit, deposit)
	require.NoError(t, err)

	e.cancel()
	<-e.pp.Done()

	var eg errgroup.Group
	for i := 0; i < 20; i++ {
		eg.Go(func() error {
			_, err := e.pp.AddMessage(context.Background(), e.owner, tx.Deposit, deposit)
			if !errors.Is(err, ErrClosed) {
				return xerrors.Errorf("want closed, got %v", err)
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("push after close blocked")
	}
}
