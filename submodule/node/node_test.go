package node

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/api/client"
	"github.com/memoio/go-betawallet/build"
	"github.com/memoio/go-betawallet/config"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

const testPassword = "betawallet"

type testNode struct {
	n       *BaseNode
	r       repo.Repo
	owner   address.Address
	signers []address.Address
}

func startTestNode(t *testing.T) *testNode {
	r, err := repo.NewFSRepo(filepath.Join(t.TempDir(), "repo"), config.NewDefaultConfig())
	require.NoError(t, err)

	tn := &testNode{r: r}

	w := wallet.New(testPassword, r.KeyStore())
	tn.owner, err = w.WalletNew(types.Secp256k1)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		a, err := w.WalletNew(types.Secp256k1)
		require.NoError(t, err)
		tn.signers = append(tn.signers, a)
	}

	cfg := r.Config()
	cfg.Wallet.DefaultAddress = tn.owner.String()
	cfg.Multisig.Owner = tn.owner.String()
	cfg.Multisig.Signers = []string{tn.signers[0].String(), tn.signers[1].String()}
	cfg.Multisig.Threshold = 2
	require.NoError(t, r.ReplaceConfig(cfg))

	opts, err := OptionsFromRepo(r)
	require.NoError(t, err)
	opts = append(opts, SetWalletPassword(testPassword))

	tn.n, err = New(context.Background(), opts...)
	require.NoError(t, err)
	require.NoError(t, tn.n.Start())
	t.Cleanup(func() { tn.n.Stop(context.Background()) })

	return tn
}

func TestBuildWithoutRepo(t *testing.T) {
	_, err := New(context.Background())
	require.Error(t, err)

	_, err = OptionsFromRepo(nil)
	require.Error(t, err)
}

func TestNodeRPC(t *testing.T) {
	tn := startTestNode(t)
	ctx := context.Background()

	ready := make(chan interface{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- tn.n.RunRPCAndWait(ctx, ready)
	}()
	<-ready

	maddr, err := tn.r.APIAddr()
	require.NoError(t, err)
	url, err := client.RPCURL(maddr)
	require.NoError(t, err)

	token, err := tn.r.APIToken()
	require.NoError(t, err)
	header := http.Header{}
	header.Add("Authorization", "Bearer "+string(token))

	fn, closer, err := client.NewFullNodeClient(ctx, url, header)
	require.NoError(t, err)
	defer closer()

	v, err := fn.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, build.UserVersion(), v)

	def, err := fn.WalletDefault(ctx)
	require.NoError(t, err)
	require.Equal(t, tn.owner, def)

	require.NoError(t, fn.MsigDeposit(ctx, address.Undef, types.NativeCurrency, big.NewInt(1e18)))

	id, err := fn.MsigPropose(ctx, tn.signers[0], types.TxTransfer, types.Payload{
		Beneficiary: tn.owner,
		Amount:      big.NewInt(5e17),
	})
	require.NoError(t, err)

	st, err := fn.MsigSign(ctx, tn.signers[0], id)
	require.NoError(t, err)
	require.Equal(t, types.TxPending, st)

	st, err = fn.MsigSign(ctx, tn.signers[1], id)
	require.NoError(t, err)
	require.Equal(t, types.TxExecuted, st)

	bi, err := fn.MsigBalance(ctx, types.NativeCurrency)
	require.NoError(t, err)
	require.Equal(t, "0.5", bi.Display)

	// errors keep their kind across the rpc connection
	_, err = fn.MsigSign(ctx, tn.signers[0], id)
	require.ErrorIs(t, err, types.ErrAlreadyExecuted)

	_, err = fn.MsigCheckPermitting(ctx, tn.signers[0], 99)
	require.ErrorIs(t, err, types.ErrNotFound)

	id2, err := fn.MsigPropose(ctx, tn.signers[0], types.TxTransfer, types.Payload{
		Beneficiary: tn.owner,
		Amount:      big.NewInt(1),
	})
	require.NoError(t, err)
	err = fn.MsigDelete(ctx, tn.signers[1], id2)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.NotContains(t, err.Error(), "unauthorized: unauthorized")
	require.NoError(t, fn.MsigDelete(ctx, tn.signers[0], id2))

	info, err := fn.StateGetWalletInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(2), info.Threshold)
	require.Equal(t, 0, info.Pending)

	// a read token cannot move funds
	rt, err := fn.AuthNew(ctx, api.DefaultPerms)
	require.NoError(t, err)
	rheader := http.Header{}
	rheader.Add("Authorization", "Bearer "+string(rt))
	rn, rcloser, err := client.NewFullNodeClient(ctx, url, rheader)
	require.NoError(t, err)
	defer rcloser()

	_, err = rn.MsigGetOwner(ctx)
	require.NoError(t, err)
	err = rn.MsigDeposit(ctx, address.Undef, types.NativeCurrency, big.NewInt(1))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, fn.Shutdown(ctx))
	require.NoError(t, <-errCh)
}

func TestWalletRoutes(t *testing.T) {
	tn := startTestNode(t)
	h := tn.n.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/wallet/owner")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, strings.ToLower(rec.Body.String()), strings.ToLower(tn.owner.Hex()))

	rec = get("/wallet/pending")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get("/wallet/balance/native")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Display":"0"`)

	rec = get("/wallet/balance/bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get("/wallet/permitting/1/nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get("/wallet/permitting/99/" + tn.signers[0].String())
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get("/debug/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
