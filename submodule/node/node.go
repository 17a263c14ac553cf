package node

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gorilla/mux"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/build"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/types"
	wsvc "github.com/memoio/go-betawallet/service/wallet"
	mauth "github.com/memoio/go-betawallet/submodule/auth"
	mconfig "github.com/memoio/go-betawallet/submodule/config"
	"github.com/memoio/go-betawallet/submodule/metrics"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

var logger = log.Logger("basenode")

// NameSpace of the json rpc api
const NameSpace = "BetaWallet"

var _ api.FullNode = (*BaseNode)(nil)

type BaseNode struct {
	*wallet.WalletAPI

	*mauth.JwtAuth

	*mconfig.ConfigAPI

	api.IMultiSig

	api.IState

	ctx    context.Context
	cancel context.CancelFunc

	repo repo.Repo

	svc     *wsvc.Service // nil in chain mode
	closers []func()

	stopOnce sync.Once

	ShutdownChan chan struct{}

	IsOnline bool
}

// Start boots up the node.
func (n *BaseNode) Start() error {
	ctx, err := tag.New(n.ctx,
		tag.Insert(metrics.Version, build.BuildVersion),
		tag.Insert(metrics.Commit, build.CurrentCommit),
	)
	if err != nil {
		return err
	}
	stats.Record(ctx, metrics.WalletInfo.M(1))

	if n.svc != nil {
		n.svc.Start()
	}

	token, err := n.AdminToken()
	if err != nil {
		return err
	}
	err = n.repo.SetAPIToken(token)
	if err != nil {
		return err
	}

	n.IsOnline = true

	return nil
}

func (n *BaseNode) Stop(ctx context.Context) {
	n.stopOnce.Do(func() {
		n.IsOnline = false
		n.cancel()

		if n.svc != nil {
			select {
			case <-n.svc.Done():
			case <-ctx.Done():
				logger.Warn("stop before the pool drained")
			}
		}

		for _, c := range n.closers {
			c()
		}

		if err := n.repo.Close(); err != nil {
			logger.Errorf("error closing repo: %s", err)
		}

		logger.Info("stopping betawallet :(")
	})
}

func (n *BaseNode) Online() bool {
	return n.IsOnline
}

func (n *BaseNode) Version(context.Context) (string, error) {
	return build.UserVersion(), nil
}

func (n *BaseNode) Shutdown(context.Context) error {
	select {
	case n.ShutdownChan <- struct{}{}:
	default:
	}
	return nil
}

// WalletDefault is wallet.defaultAddress of the config.
func (n *BaseNode) WalletDefault(context.Context) (address.Address, error) {
	s := n.repo.Config().Wallet.DefaultAddress
	if s == "" {
		return address.Undef, xerrors.Errorf("wallet.defaultAddress is not set: %w", types.ErrInvalidParams)
	}
	return address.NewFromString(s)
}

// Handler routes the rpc api, the read-only http api and metrics.
func (n *BaseNode) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(requestTimer)

	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(NameSpace, api.PermissionedFullAPI(n))
	router.Handle("/rpc/v0", rpcServer)

	router.Handle("/debug/metrics", metrics.Exporter())
	router.PathPrefix("/debug/pprof").Handler(http.DefaultServeMux)

	registerWalletRoutes(router.PathPrefix("/wallet").Subrouter(), n)

	return &auth.Handler{
		Verify: n.AuthVerify,
		Next:   router.ServeHTTP,
	}
}

func (n *BaseNode) RunRPCAndWait(ctx context.Context, ready chan interface{}) error {
	cfg := n.repo.Config()
	apiAddr, err := ma.NewMultiaddr(cfg.API.APIAddress)
	if err != nil {
		return err
	}

	// Listen on the configured address in order to bind the port number in case it has
	// been configured as zero (i.e. OS-provided)
	apiListener, err := manet.Listen(apiAddr) //nolint
	if err != nil {
		return err
	}

	netListener := manet.NetListener(apiListener) //nolint

	apiserv := &http.Server{
		Handler: n.Handler(),
	}

	err = n.repo.SetAPIAddr(apiListener.Multiaddr().String())
	if err != nil {
		return err
	}

	logger.Infow("api listening", "addr", apiListener.Multiaddr())

	var terminate = make(chan os.Signal, 1)
	signal.Notify(terminate, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(terminate)

	close(ready)

	go func() {
		select {
		case <-n.ShutdownChan:
			logger.Warn("received shutdown")
		case <-terminate:
			logger.Warn("received shutdown signal")
		case <-ctx.Done():
		}

		logger.Warn("shutdown...")
		err := apiserv.Shutdown(context.Background())
		if err != nil {
			logger.Errorf("shutdown api server: %s", err)
		}
		n.Stop(context.Background())
	}()

	err = apiserv.Serve(netListener)
	if xerrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunDaemon serves the api until shutdown.
func (n *BaseNode) RunDaemon() error {
	ready := make(chan interface{})
	return n.RunRPCAndWait(n.ctx, ready)
}
