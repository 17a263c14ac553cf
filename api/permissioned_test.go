package api

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/types"
)

type testAPI struct{}

func (testAPI) Delete(ctx context.Context, id uint64) error {
	return xerrors.Errorf("cannot delete tx %d: %w", id, types.ErrUnauthorized)
}

func (testAPI) Pending(ctx context.Context) ([]uint64, error) {
	return []uint64{1, 2}, nil
}

type testStruct struct {
	Delete  func(context.Context, uint64) error        `perm:"sign"`
	Pending func(context.Context) ([]uint64, error) `perm:"read"`
}

func TestPermissionedProxy(t *testing.T) {
	var out testStruct
	permissionedProxy(testAPI{}, &out)

	signCtx := auth.WithPerm(context.Background(), AllPermissions)

	ids, err := out.Pending(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, ids)

	// server side only has the wire text
	err = out.Delete(signCtx, 1)
	require.EqualError(t, err, "[1] cannot delete tx 1: unauthorized")

	err = out.Delete(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing permission")

	decodeProxy(&out)

	err = out.Delete(signCtx, 1)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.EqualError(t, err, "cannot delete tx 1: unauthorized")

	err = out.Delete(context.Background(), 1)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	ids, err = out.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestBadPermTag(t *testing.T) {
	var out struct {
		Pending func(context.Context) ([]uint64, error) `perm:"root"`
	}
	require.Panics(t, func() { permissionedProxy(testAPI{}, &out) })
}
