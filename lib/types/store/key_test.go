package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	require.Equal(t, "3/7", string(NewKey(MetaTypePendingTx, uint64(7))))
	require.Equal(t, "6/0", string(NewKey(MetaTypeBalance, uint32(0))))
	require.Equal(t, "1", string(NewKey(MetaTypeWalletInfo)))
	require.Equal(t, "9/ab/3", string(NewKey(MetaTypeMsg, "ab", 3)))
}
