package client

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/utils/paths"
)

// EnvAPIInfo overrides the repo files, as "token:/ip4/127.0.0.1/tcp/5001".
const EnvAPIInfo = "BWALLET_API"

const nameSpace = "BetaWallet"

// GetClientInfo returns the rpc url and auth header of the daemon
// running on repoDir.
func GetClientInfo(repoDir string) (string, http.Header, error) {
	var maddr string
	var token []byte

	if info, ok := os.LookupEnv(EnvAPIInfo); ok {
		sp := strings.SplitN(info, ":", 2)
		if len(sp) != 2 {
			return "", nil, xerrors.Errorf("%s: want token:multiaddr", EnvAPIInfo)
		}
		token, maddr = []byte(sp[0]), sp[1]
	} else {
		repoPath, err := paths.GetRepoPath(repoDir)
		if err != nil {
			return "", nil, err
		}

		maddr, err = repo.APIAddrFromPath(repoPath)
		if err != nil {
			return "", nil, xerrors.Errorf("daemon is not running: %w", err)
		}

		token, err = repo.APITokenFromPath(repoPath)
		if err != nil {
			return "", nil, err
		}
	}

	addr, err := RPCURL(maddr)
	if err != nil {
		return "", nil, err
	}

	headers := http.Header{}
	if len(token) > 0 {
		headers.Add("Authorization", "Bearer "+string(token))
	}

	return addr, headers, nil
}

// RPCURL converts the api multiaddr to the websocket rpc url.
func RPCURL(maddr string) (string, error) {
	apima, err := multiaddr.NewMultiaddr(maddr)
	if err != nil {
		return "", err
	}

	_, addr, err := manet.DialArgs(apima)
	if err != nil {
		return "", err
	}

	return "ws://" + addr + "/rpc/v0", nil
}

// NewFullNodeClient dials the daemon; errors it returns keep their codes.
func NewFullNodeClient(ctx context.Context, addr string, requestHeader http.Header) (api.FullNode, jsonrpc.ClientCloser, error) {
	var res api.FullNodeStruct
	closer, err := jsonrpc.NewMergeClient(ctx, addr, nameSpace,
		api.GetInternalStructs(&res), requestHeader)
	if err != nil {
		return nil, nil, err
	}

	api.DecodeErrors(&res)

	return &res, closer, nil
}
