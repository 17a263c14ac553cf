package auth

import (
	"context"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gbrlsnchs/jwt/v3"
	"golang.org/x/xerrors"
	"lukechampine.com/frand"

	"github.com/memoio/go-betawallet/api"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/types/store"
)

var logger = logging.Logger("auth")

const secretLen = 32

type jwtPayload struct {
	Allow []auth.Permission
}

// JwtAuth issues and checks api tokens signed with a per-repo secret.
type JwtAuth struct {
	apiSecret *jwt.HMACSHA
}

// NewJwtAuth loads the secret from ds, creating it on first use.
func NewJwtAuth(ds store.KVStore) (*JwtAuth, error) {
	key := store.NewKey(store.MetaTypeAuthSecret)
	sk, err := ds.Get(key)
	if err != nil {
		return nil, err
	}

	if len(sk) == 0 {
		logger.Info("generating api secret")
		sk = frand.Bytes(secretLen)
		err = ds.Put(key, sk)
		if err != nil {
			return nil, xerrors.Errorf("store api secret: %w", err)
		}
	}

	return &JwtAuth{
		apiSecret: jwt.NewHS256(sk),
	}, nil
}

func (a *JwtAuth) AuthVerify(ctx context.Context, token string) ([]auth.Permission, error) {
	var payload jwtPayload
	if _, err := jwt.Verify([]byte(token), a.apiSecret, &payload); err != nil {
		return nil, xerrors.Errorf("JWT Verification failed: %w", err)
	}

	return payload.Allow, nil
}

func (a *JwtAuth) AuthNew(ctx context.Context, perms []auth.Permission) ([]byte, error) {
	for _, p := range perms {
		if !validPerm(p) {
			return nil, xerrors.Errorf("unknown permission %q", p)
		}
	}

	p := jwtPayload{
		Allow: perms,
	}

	return jwt.Sign(&p, a.apiSecret)
}

// AdminToken carries every permission; the node hands it to local clients.
func (a *JwtAuth) AdminToken() ([]byte, error) {
	return a.AuthNew(context.Background(), api.AllPermissions)
}

func validPerm(p auth.Permission) bool {
	for _, ap := range api.AllPermissions {
		if ap == p {
			return true
		}
	}
	return false
}
