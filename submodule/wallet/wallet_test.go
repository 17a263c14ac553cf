package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memoio/go-betawallet/lib/backend/keystore"
	"github.com/memoio/go-betawallet/lib/crypto/signature"
	"github.com/memoio/go-betawallet/lib/types"
)

func TestWallet(t *testing.T) {
	ks, err := keystore.NewKeyRepo(t.TempDir(), keystore.LightScrypt())
	require.NoError(t, err)

	w := New("12345", ks)

	addr, err := w.WalletNew(types.Secp256k1)
	require.NoError(t, err)
	require.True(t, w.WalletHas(addr))

	addrs, err := w.WalletList()
	require.NoError(t, err)
	require.Equal(t, 1, len(addrs))
	require.Equal(t, addr, addrs[0])

	msg := []byte("hello")
	sig, err := w.WalletSign(addr, msg)
	require.NoError(t, err)

	ok, err := signature.Verify(addr, msg, sig)
	require.NoError(t, err)
	require.True(t, ok)

	// a fresh wallet over the same keystore unlocks from disk
	w2 := New("12345", ks)
	sig2, err := w2.WalletSign(addr, msg)
	require.NoError(t, err)
	ok, err = signature.Verify(addr, msg, sig2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = w.WalletExport(addr, "bad")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	ki, err := w.WalletExport(addr, "12345")
	require.NoError(t, err)

	require.NoError(t, w.WalletDelete(addr))
	require.False(t, w.WalletHas(addr))

	back, err := w.WalletImport(ki)
	require.NoError(t, err)
	require.Equal(t, addr, back)

	_, err = New("other", ks).WalletSign(addr, msg)
	require.Error(t, err)
}
