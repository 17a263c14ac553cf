package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
)

func TestErrCode(t *testing.T) {
	assert := assert.New(t)

	err := xerrors.Errorf("sign tx 3: %w", ErrAlreadySigned)
	assert.Equal(CodeAlreadySigned, ErrCodeOf(err))
	assert.Equal(CodeOK, ErrCodeOf(nil))
	assert.Equal(CodeInternal, ErrCodeOf(xerrors.New("boom")))

	back := ErrorFromCode(ErrCodeOf(err), err.Error())
	assert.True(xerrors.Is(back, ErrAlreadySigned))
	assert.Equal("sign tx 3: already signed", back.Error())
	assert.Equal(ErrNotFound, ErrorFromCode(CodeNotFound, ""))
	assert.Equal("internal", ErrorFromCode(CodeInternal, "").Error())
	assert.Nil(ErrorFromCode(CodeOK, ""))

	re := NewRemoteError("signTransaction", xerrors.New("connection refused"))
	assert.True(xerrors.Is(re, ErrRemoteFailure))
	assert.Equal(CodeRemoteFailure, ErrCodeOf(xerrors.Errorf("wrap: %w", re)))
	assert.Nil(NewRemoteError("admin", nil))
}

func TestErrorWire(t *testing.T) {
	err := xerrors.Errorf("cannot delete tx 1: %w", ErrUnauthorized)

	msg := ErrorToWire(err)
	require.Equal(t, "[1] cannot delete tx 1: unauthorized", msg)

	back := ErrorFromWire(xerrors.New(msg))
	require.ErrorIs(t, back, ErrUnauthorized)
	require.Equal(t, err.Error(), back.Error())
	require.Equal(t, CodeUnauthorized, ErrCodeOf(back))

	back = ErrorFromWire(xerrors.New(ErrorToWire(xerrors.New("disk full"))))
	require.Equal(t, CodeInternal, ErrCodeOf(back))
	require.Equal(t, "disk full", back.Error())

	// transport errors pass through untouched
	plain := xerrors.New("websocket closed")
	require.Same(t, plain, ErrorFromWire(plain))
	bad := xerrors.New("[x] no code")
	require.Same(t, bad, ErrorFromWire(bad))
	require.Nil(t, ErrorFromWire(nil))
}

func TestResult(t *testing.T) {
	r := Ok(uint64(7))
	v, ok := r.Value()
	require.True(t, ok)
	require.Equal(t, uint64(7), v)
	require.NoError(t, r.Err())

	f := Fail[uint64](ErrNotFound)
	require.False(t, f.IsOk())
	_, err := f.Unwrap()
	require.ErrorIs(t, err, ErrNotFound)
	v, ok = f.Value()
	require.False(t, ok)
	require.Zero(t, v)

	require.Error(t, Fail[string](nil).Err())
}

func TestUnits(t *testing.T) {
	assert := assert.New(t)

	v, ok := new(big.Int).SetString("1500000000000000000", 10)
	assert.True(ok)
	assert.Equal("1.5", ToDisplay(v))
	assert.Equal("0", ToDisplay(nil))
	assert.Equal("0.000000000000000001", ToDisplay(big.NewInt(1)))

	back, err := FromDisplay("1.5")
	assert.NoError(err)
	assert.Equal(0, v.Cmp(back))

	_, err = FromDisplay("0.0000000000000000001")
	assert.ErrorIs(err, ErrInvalidParams)

	_, err = FromDisplay("-1")
	assert.ErrorIs(err, ErrInvalidParams)

	_, err = FromDisplay("abc")
	assert.ErrorIs(err, ErrInvalidParams)
}

func TestPayloadValidate(t *testing.T) {
	assert := assert.New(t)

	to, err := address.NewFromString("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.NoError(err)

	p := Payload{Beneficiary: to, Amount: big.NewInt(100)}
	assert.NoError(p.Validate(TxTransfer))
	assert.ErrorIs(p.Validate(TxTokenTransfer), ErrInvalidParams)

	p.Currency = 2
	assert.NoError(p.Validate(TxTokenTransfer))
	assert.ErrorIs(p.Validate(TxTransfer), ErrInvalidParams)

	p.Amount = big.NewInt(0)
	assert.ErrorIs(p.Validate(TxTokenTransfer), ErrInvalidParams)

	p = Payload{Amount: big.NewInt(1)}
	assert.ErrorIs(p.Validate(TxWithdrawal), ErrInvalidParams)

	assert.Equal(TxTransfer, KindOf(NativeCurrency))
	assert.Equal(TxTokenTransfer, KindOf(3))
}

func TestGenesisValidate(t *testing.T) {
	assert := assert.New(t)

	a, _ := address.NewAddress(make([]byte, 20))
	b1 := make([]byte, 20)
	b1[19] = 1
	b, _ := address.NewAddress(b1)

	g := &WalletGenesis{Owner: a, Signers: []address.Address{a, b}, Threshold: 2}
	assert.NoError(g.Validate())

	g.Threshold = 3
	assert.ErrorIs(g.Validate(), ErrInvalidParams)

	g.Threshold = 0
	assert.ErrorIs(g.Validate(), ErrInvalidParams)

	g.Threshold = 1
	g.Signers = []address.Address{a, a}
	assert.ErrorIs(g.Validate(), ErrInvalidParams)

	g.Signers = nil
	assert.ErrorIs(g.Validate(), ErrInvalidParams)
}

func TestCurrency(t *testing.T) {
	c, err := ParseCurrency("token-5")
	require.NoError(t, err)
	require.Equal(t, Currency(5), c)
	require.Equal(t, "token-5", c.String())

	c, err = ParseCurrency("native")
	require.NoError(t, err)
	require.True(t, c.IsNative())

	_, err = ParseCurrency("gold")
	require.ErrorIs(t, err, ErrInvalidParams)

	k, err := ParseTxKind("tokenTransfer")
	require.NoError(t, err)
	require.Equal(t, TxTokenTransfer, k)
}
