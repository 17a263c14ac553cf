package tx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/backend/kv"
	"github.com/memoio/go-betawallet/lib/crypto/signature"
	"github.com/memoio/go-betawallet/lib/types"
)

func signedMsg(t *testing.T) (*SignedMessage, *types.KeyInfo) {
	ki, err := signature.GenerateKey()
	require.NoError(t, err)

	from, err := signature.GetAdressFromKey(ki)
	require.NoError(t, err)

	pp := &ProposeParams{
		Kind: types.TxTransfer,
		Payload: types.Payload{
			Beneficiary: from,
			Amount:      big.NewInt(100),
		},
	}
	pb, err := pp.Serialize()
	require.NoError(t, err)

	sm := new(SignedMessage)
	sm.Message = NewMessage()
	sm.From = from
	sm.Nonce = 3
	sm.Method = ProposeTx
	sm.Params = pb

	id, err := sm.Hash()
	require.NoError(t, err)

	sig, err := signature.Sign(ki, id.Bytes())
	require.NoError(t, err)
	sm.Signature = types.Signature{Type: types.SigSecp256k1, Data: sig}

	return sm, ki
}

func TestMessage(t *testing.T) {
	sm, _ := signedMsg(t)

	id, err := sm.Hash()
	require.NoError(t, err)

	sms, err := sm.Serialize()
	require.NoError(t, err)

	nsm := new(SignedMessage)
	nid, err := nsm.Deserialize(sms)
	require.NoError(t, err)
	require.Equal(t, id, nid)

	ok, err := signature.Verify(nsm.From, nid.Bytes(), nsm.Signature.Data)
	require.NoError(t, err)
	require.True(t, ok, "signature wrong")

	pp := new(ProposeParams)
	require.NoError(t, pp.Deserialize(nsm.Params))
	require.Equal(t, int64(100), pp.Payload.Amount.Int64())
	require.Equal(t, nsm.From, pp.Payload.Beneficiary)

	_, err = nsm.Deserialize([]byte{1})
	require.Equal(t, ErrMsgLenShort, err)
}

func TestTxStore(t *testing.T) {
	ds, err := kv.NewMemStore()
	require.NoError(t, err)
	defer ds.Close()

	ts, err := NewTxStore(ds)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ts.Height())

	sm, _ := signedMsg(t)
	mid, err := ts.PutTxMsg(sm)
	require.NoError(t, err)

	got, err := ts.GetTxMsg(mid)
	require.NoError(t, err)
	require.Equal(t, sm.Nonce, got.Nonce)

	r := &Receipt{MsgID: mid, Method: ProposeTx, Height: 1, TxID: 1}
	r.SetErr(xerrors.Errorf("sign 1: %w", types.ErrAlreadySigned))
	require.NoError(t, ts.PutReceipt(r))
	require.Equal(t, uint64(1), ts.Height())

	// reopen to bypass caches
	ts2, err := NewTxStore(ds)
	require.NoError(t, err)
	require.Equal(t, uint64(1), ts2.Height())

	nr, err := ts2.GetReceipt(mid)
	require.NoError(t, err)
	require.ErrorIs(t, nr.Error(), types.ErrAlreadySigned)

	hid, err := ts2.GetMsgByHeight(1)
	require.NoError(t, err)
	require.Equal(t, mid, hid)

	_, err = ts2.GetMsgByHeight(2)
	require.ErrorIs(t, err, ErrNotStored)

	nsm, err := ts2.GetTxMsg(mid)
	require.NoError(t, err)
	require.Equal(t, sm.From, nsm.From)
}
