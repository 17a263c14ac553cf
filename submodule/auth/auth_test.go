package auth

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/backend/kv"
)

func TestJwtAuth(t *testing.T) {
	ctx := context.Background()

	ds, err := kv.NewMemStore()
	require.NoError(t, err)
	defer ds.Close()

	ja, err := NewJwtAuth(ds)
	require.NoError(t, err)

	tk, err := ja.AuthNew(ctx, []auth.Permission{api.PermRead, api.PermSign})
	require.NoError(t, err)

	perms, err := ja.AuthVerify(ctx, string(tk))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{api.PermRead, api.PermSign}, perms)

	_, err = ja.AuthNew(ctx, []auth.Permission{"root"})
	require.Error(t, err)

	// same secret after reopen
	ja2, err := NewJwtAuth(ds)
	require.NoError(t, err)
	_, err = ja2.AuthVerify(ctx, string(tk))
	require.NoError(t, err)

	_, err = ja2.AuthVerify(ctx, string(tk)+"x")
	require.Error(t, err)

	adm, err := ja.AdminToken()
	require.NoError(t, err)
	perms, err = ja.AuthVerify(ctx, string(adm))
	require.NoError(t, err)
	require.Len(t, perms, len(api.AllPermissions))
}
