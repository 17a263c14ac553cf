package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/backend/kv"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

func testAddr(i byte) address.Address {
	b := make([]byte, address.AddressLength)
	b[0] = 0xaa
	b[19] = i
	a, err := address.NewAddress(b)
	if err != nil {
		panic(err)
	}
	return a
}

type fixture struct {
	s       *StateMgr
	owner   address.Address
	signers []address.Address
	bene    address.Address
	ds      *kv.BadgerStore
}

func newFixture(t *testing.T, k uint32, n int) *fixture {
	ds, err := kv.NewMemStore()
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	f := &fixture{
		owner: testAddr(0),
		bene:  testAddr(200),
		ds:    ds,
	}
	for i := 1; i <= n; i++ {
		f.signers = append(f.signers, testAddr(byte(i)))
	}

	f.s, err = NewStateMgr(ds, &types.WalletGenesis{
		Owner:     f.owner,
		Signers:   f.signers,
		Threshold: k,
	})
	require.NoError(t, err)

	return f
}

func (f *fixture) payload(v int64) types.Payload {
	return types.Payload{Beneficiary: f.bene, Amount: big.NewInt(v)}
}

func TestGenesis(t *testing.T) {
	f := newFixture(t, 2, 3)

	assert.Equal(t, f.owner, f.s.GetOwner())
	assert.Equal(t, f.owner, f.s.GetAdmin(), "admin defaults to owner")
	assert.Equal(t, f.signers, f.s.GetSigners())
	assert.Equal(t, uint32(2), f.s.GetThreshold())
	assert.Equal(t, beginRoot, f.s.GetRoot())

	// no genesis on an empty store
	ds, err := kv.NewMemStore()
	require.NoError(t, err)
	defer ds.Close()
	_, err = NewStateMgr(ds, nil)
	assert.ErrorIs(t, err, types.ErrInvalidParams)

	_, err = NewStateMgr(ds, &types.WalletGenesis{Owner: f.owner, Signers: f.signers, Threshold: 4})
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

// checkPermitting is true iff signer, pending and not yet signed
func TestCheckPermitting(t *testing.T) {
	f := newFixture(t, 2, 3)
	a1, a2, a3 := f.signers[0], f.signers[1], f.signers[2]

	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(10))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	ok, err := f.s.CheckPermitting(a1, id)
	require.NoError(t, err)
	assert.True(t, ok, "proposing is not signing")

	ok, err = f.s.CheckPermitting(f.bene, id)
	require.NoError(t, err)
	assert.False(t, ok, "not a signer")

	_, err = f.s.SignTx(a1, id)
	require.NoError(t, err)

	ok, err = f.s.CheckPermitting(a1, id)
	require.NoError(t, err)
	assert.False(t, ok, "already signed")

	ok, err = f.s.CheckPermitting(a3, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.s.CheckPermitting(a1, 99)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(10)))
	st, err := f.s.SignTx(a2, id)
	require.NoError(t, err)
	assert.Equal(t, types.TxExecuted, st)

	ok, err = f.s.CheckPermitting(a3, id)
	require.NoError(t, err)
	assert.False(t, ok, "executed")
}

// a second signature by the same signer changes nothing
func TestDuplicateSign(t *testing.T) {
	f := newFixture(t, 2, 3)
	a1 := f.signers[0]

	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(10))
	require.NoError(t, err)

	st, err := f.s.SignTx(a1, id)
	require.NoError(t, err)
	assert.Equal(t, types.TxPending, st)

	st, err = f.s.SignTx(a1, id)
	assert.ErrorIs(t, err, types.ErrAlreadySigned)
	assert.Equal(t, types.TxPending, st)

	ptx, err := f.s.GetTx(id)
	require.NoError(t, err)
	assert.Equal(t, []address.Address{a1}, ptx.Signatures)
	assert.Equal(t, types.TxPending, ptx.Status)

	_, err = f.s.SignTx(f.bene, id)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

// k=2, 100 units: first signature keeps it pending, second executes once
func TestQuorumScenario(t *testing.T) {
	f := newFixture(t, 2, 3)
	a1, a2, a3 := f.signers[0], f.signers[1], f.signers[2]

	require.NoError(t, f.s.Deposit(f.bene, types.NativeCurrency, big.NewInt(250)))

	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(100))
	require.NoError(t, err)

	st, err := f.s.SignTx(a1, id)
	require.NoError(t, err)
	assert.Equal(t, types.TxPending, st)
	assert.Equal(t, int64(250), f.s.GetBalance(types.NativeCurrency).Int64())

	st, err = f.s.SignTx(a2, id)
	require.NoError(t, err)
	assert.Equal(t, types.TxExecuted, st)
	assert.Equal(t, int64(150), f.s.GetBalance(types.NativeCurrency).Int64())

	_, err = f.s.SignTx(a3, id)
	assert.ErrorIs(t, err, types.ErrAlreadyExecuted)
	assert.Equal(t, int64(150), f.s.GetBalance(types.NativeCurrency).Int64())

	ptx, err := f.s.GetTx(id)
	require.NoError(t, err)
	assert.Equal(t, types.TxExecuted, ptx.Status)
	assert.Equal(t, []address.Address{a1, a2}, ptx.Signatures)
	assert.Empty(t, f.s.GetPending())
}

// concurrent signatures execute exactly once
func TestConcurrentSign(t *testing.T) {
	const n = 8
	f := newFixture(t, 3, n)

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(1000)))

	id, err := f.s.Propose(f.signers[0], types.TxTransfer, f.payload(100))
	require.NoError(t, err)

	var eg errgroup.Group
	results := make([]error, n)
	executed := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			st, err := f.s.SignTx(f.signers[i], id)
			results[i] = err
			executed[i] = err == nil && st == types.TxExecuted
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	succeeded, execs := 0, 0
	for i := 0; i < n; i++ {
		if results[i] == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, results[i], types.ErrAlreadyExecuted)
		}
		if executed[i] {
			execs++
		}
	}

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 1, execs)
	assert.Equal(t, int64(900), f.s.GetBalance(types.NativeCurrency).Int64())
}

// a debit never drives a balance negative
func TestNoNegativeBalance(t *testing.T) {
	f := newFixture(t, 1, 1)
	a1 := f.signers[0]

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(50)))

	err := f.s.Debit(types.NativeCurrency, big.NewInt(51))
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.Equal(t, int64(50), f.s.GetBalance(types.NativeCurrency).Int64())

	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(60))
	require.NoError(t, err)

	// signature that would execute is rejected as a whole
	_, err = f.s.SignTx(a1, id)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	ptx, err := f.s.GetTx(id)
	require.NoError(t, err)
	assert.Equal(t, types.TxPending, ptx.Status)
	assert.Empty(t, ptx.Signatures)
	assert.Equal(t, int64(50), f.s.GetBalance(types.NativeCurrency).Int64())

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(10)))
	st, err := f.s.SignTx(a1, id)
	require.NoError(t, err)
	assert.Equal(t, types.TxExecuted, st)
	assert.Equal(t, int64(0), f.s.GetBalance(types.NativeCurrency).Int64())

	// token balances are separate
	tid, err := f.s.Propose(a1, types.TxTokenTransfer, types.Payload{Beneficiary: f.bene, Amount: big.NewInt(1), Currency: 7})
	require.NoError(t, err)
	_, err = f.s.SignTx(a1, tid)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	assert.ErrorIs(t, f.s.Debit(types.NativeCurrency, big.NewInt(0)), types.ErrInvalidParams)
}

func TestSetAdmin(t *testing.T) {
	f := newFixture(t, 1, 2)
	a1 := f.signers[0]

	err := f.s.SetAdmin(a1, a1)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, f.owner, f.s.GetAdmin())

	assert.ErrorIs(t, f.s.SetAdmin(f.owner, address.Undef), types.ErrInvalidParams)

	require.NoError(t, f.s.SetAdmin(f.owner, a1))
	assert.Equal(t, a1, f.s.GetAdmin())
	assert.Equal(t, f.owner, f.s.GetOwner(), "owner is immutable")

	// the old admin lost the right
	assert.ErrorIs(t, f.s.SetAdmin(f.owner, f.owner), types.ErrUnauthorized)
}

func TestDeleteTx(t *testing.T) {
	f := newFixture(t, 2, 3)
	a1, a2 := f.signers[0], f.signers[1]

	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(10))
	require.NoError(t, err)

	assert.ErrorIs(t, f.s.DeleteTx(a2, id), types.ErrUnauthorized)

	require.NoError(t, f.s.DeleteTx(a1, id))

	ok, err := f.s.CheckPermitting(a2, id)
	assert.False(t, ok)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.s.SignTx(a2, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, f.s.DeleteTx(a1, id), types.ErrNotFound)

	// admin may delete anyone's proposal
	id2, err := f.s.Propose(a2, types.TxTransfer, f.payload(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2, "ids are never reused")
	require.NoError(t, f.s.DeleteTx(f.owner, id2))
}

func TestPendingOrder(t *testing.T) {
	f := newFixture(t, 1, 2)
	a1, a2 := f.signers[0], f.signers[1]

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(100)))

	var ids []uint64
	for i := 0; i < 4; i++ {
		id, err := f.s.Propose(a1, types.TxTransfer, f.payload(10))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, ids, f.s.GetPending())

	_, err := f.s.SignTx(a2, ids[1])
	require.NoError(t, err)
	require.NoError(t, f.s.DeleteTx(a1, ids[2]))

	assert.Equal(t, []uint64{ids[0], ids[3]}, f.s.GetPending())

	// proposer must be a signer or admin
	_, err = f.s.Propose(f.bene, types.TxTransfer, f.payload(10))
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	id, err := f.s.Propose(f.owner, types.TxWithdrawal, f.payload(10))
	require.NoError(t, err)
	assert.Equal(t, []uint64{ids[0], ids[3], id}, f.s.GetPending())

	_, err = f.s.Propose(a1, types.TxTransfer, f.payload(0))
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, 1, 2)

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(100)))
	require.NoError(t, f.s.Credit(3, big.NewInt(40)))

	_, err := f.s.Withdraw(f.signers[0], types.NativeCurrency, nil)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	v, err := f.s.Withdraw(f.owner, 3, big.NewInt(15))
	require.NoError(t, err)
	assert.Equal(t, int64(15), v.Int64())
	assert.Equal(t, int64(25), f.s.GetBalance(3).Int64())

	_, err = f.s.Withdraw(f.owner, 3, big.NewInt(26))
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)

	v, err = f.s.Withdraw(f.owner, types.NativeCurrency, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v.Int64())
	assert.Equal(t, int64(0), f.s.GetBalance(types.NativeCurrency).Int64())

	v, err = f.s.Withdraw(f.owner, types.NativeCurrency, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Int64())
}

func TestReload(t *testing.T) {
	f := newFixture(t, 2, 3)
	a1 := f.signers[0]

	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(100)))
	require.NoError(t, f.s.Credit(5, big.NewInt(7)))
	id, err := f.s.Propose(a1, types.TxTransfer, f.payload(10))
	require.NoError(t, err)
	_, err = f.s.SignTx(a1, id)
	require.NoError(t, err)
	require.NoError(t, f.s.SetAdmin(f.owner, a1))

	s2, err := NewStateMgr(f.ds, nil)
	require.NoError(t, err)

	assert.Equal(t, a1, s2.GetAdmin())
	assert.Equal(t, []uint64{id}, s2.GetPending())
	assert.Equal(t, int64(100), s2.GetBalance(types.NativeCurrency).Int64())
	assert.Equal(t, int64(7), s2.GetBalance(5).Int64())

	ok, err := s2.CheckPermitting(a1, id)
	require.NoError(t, err)
	assert.False(t, ok)

	id2, err := s2.Propose(a1, types.TxTransfer, f.payload(10))
	require.NoError(t, err)
	assert.Equal(t, id+1, id2)
}

func TestReloadBadBalanceKey(t *testing.T) {
	f := newFixture(t, 1, 1)
	require.NoError(t, f.s.Credit(types.NativeCurrency, big.NewInt(100)))

	require.NoError(t, f.ds.Put(store.NewKey(store.MetaTypeBalance, "eth"), []byte{1}))

	_, err := NewStateMgr(f.ds, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed")
}

func msgOf(t *testing.T, from address.Address, nonce uint64, method tx.MsgType, params interface{ Serialize() ([]byte, error) }) (*tx.Message, types.MsgID) {
	pb, err := params.Serialize()
	require.NoError(t, err)

	m := tx.NewMessage()
	m.From = from
	m.Nonce = nonce
	m.Method = method
	m.Params = pb

	mid, err := m.Hash()
	require.NoError(t, err)
	return &m, mid
}

func TestApplyMsg(t *testing.T) {
	f := newFixture(t, 1, 2)
	a1 := f.signers[0]

	m, mid := msgOf(t, f.bene, 0, tx.Deposit, &tx.AmountParams{Amount: big.NewInt(30)})
	r, err := f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	require.NoError(t, r.Error())
	assert.Equal(t, int64(30), r.Amount.Int64())
	root1 := f.s.GetRoot()
	assert.NotEqual(t, beginRoot, root1)
	assert.Equal(t, root1, r.Root)

	// replay is rejected without a state change
	_, err = f.s.ApplyMsg(m, mid)
	assert.ErrorIs(t, err, types.ErrLowNonce)
	assert.Equal(t, root1, f.s.GetRoot())

	m, mid = msgOf(t, a1, 1, tx.ProposeTx, &tx.ProposeParams{Kind: types.TxTransfer, Payload: f.payload(20)})
	_, err = f.s.ApplyMsg(m, mid)
	assert.ErrorIs(t, err, types.ErrInvalidParams, "nonce gap")

	m, mid = msgOf(t, a1, 0, tx.ProposeTx, &tx.ProposeParams{Kind: types.TxTransfer, Payload: f.payload(20)})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	require.NoError(t, r.Error())
	assert.Equal(t, uint64(1), r.TxID)

	// failing op consumes the nonce and reports in the receipt
	m, mid = msgOf(t, f.bene, 1, tx.SignTx, &tx.TxIDParams{ID: 1})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	assert.True(t, xerrors.Is(r.Error(), types.ErrUnauthorized))
	n, err := f.s.GetNonce(f.bene)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	m, mid = msgOf(t, a1, 1, tx.SignTx, &tx.TxIDParams{ID: 1})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	require.NoError(t, r.Error())
	assert.Equal(t, uint8(types.TxExecuted), r.Status)
	assert.Equal(t, int64(10), f.s.GetBalance(types.NativeCurrency).Int64())

	m, mid = msgOf(t, f.owner, 0, tx.Withdraw, &tx.AmountParams{})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	require.NoError(t, r.Error())
	assert.Equal(t, int64(10), r.Amount.Int64())

	m, mid = msgOf(t, f.owner, 1, tx.SetAdmin, &tx.AdminParams{Admin: a1})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	require.NoError(t, r.Error())
	assert.Equal(t, a1, f.s.GetAdmin())

	m, mid = msgOf(t, a1, 2, tx.DeleteTx, &tx.TxIDParams{ID: 1})
	r, err = f.s.ApplyMsg(m, mid)
	require.NoError(t, err)
	assert.True(t, xerrors.Is(r.Error(), types.ErrNotFound))

	// roots are deterministic over the same message sequence
	s2, err := NewStateMgr(f.ds, nil)
	require.NoError(t, err)
	assert.Equal(t, f.s.GetRoot(), s2.GetRoot())
}
