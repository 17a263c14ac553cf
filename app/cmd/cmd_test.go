package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memoio/go-betawallet/lib/types"
)

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	require.Equal(t, uint64(12), id)

	_, err = parseID("-1")
	require.ErrorIs(t, err, types.ErrInvalidParams)

	_, err = parseID("")
	require.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestMsigCommandSets(t *testing.T) {
	// signers and show read the local state
	require.Equal(t, len(MsigCmd.Subcommands), len(ChainCmd.Subcommands)+2)

	for i, c := range ChainCmd.Subcommands {
		require.Equal(t, MsigCmd.Subcommands[i].Name, c.Name)

		names := map[string]bool{}
		for _, f := range c.Flags {
			for _, n := range f.Names() {
				require.False(t, names[n], "%s: duplicate flag %s", c.Name, n)
				names[n] = true
			}
		}
		require.True(t, names["endpoint"], c.Name)
		require.True(t, names[pwKwd], c.Name)
	}

	for _, c := range MsigCmd.Subcommands {
		for _, f := range c.Flags {
			require.NotContains(t, f.Names(), "endpoint")
		}
	}
}
