package node

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gorilla/mux"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/submodule/metrics"
)

// requestTimer records the duration of every routed request.
func requestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = tpl
			}
		}

		ctx, _ := tag.New(r.Context(), tag.Upsert(metrics.APIMethod, name))
		defer metrics.Timer(ctx, metrics.APIRequestDuration)()

		next.ServeHTTP(w, r)
	})
}

type walletRoutes struct {
	ms api.IMultiSig
}

// registerWalletRoutes serves the read side of the multisig api as plain http.
func registerWalletRoutes(r *mux.Router, ms api.IMultiSig) {
	wr := &walletRoutes{ms: ms}
	r.HandleFunc("/owner", wr.owner).Methods(http.MethodGet)
	r.HandleFunc("/admin", wr.admin).Methods(http.MethodGet)
	r.HandleFunc("/pending", wr.pending).Methods(http.MethodGet)
	r.HandleFunc("/balance/{currency}", wr.balance).Methods(http.MethodGet)
	r.HandleFunc("/permitting/{id}/{address}", wr.permitting).Methods(http.MethodGet)
}

func (wr *walletRoutes) owner(w http.ResponseWriter, r *http.Request) {
	if !canRead(w, r) {
		return
	}
	addr, err := wr.ms.MsigGetOwner(r.Context())
	writeResult(w, addr, err)
}

func (wr *walletRoutes) admin(w http.ResponseWriter, r *http.Request) {
	if !canRead(w, r) {
		return
	}
	addr, err := wr.ms.MsigGetAdmin(r.Context())
	writeResult(w, addr, err)
}

func (wr *walletRoutes) pending(w http.ResponseWriter, r *http.Request) {
	if !canRead(w, r) {
		return
	}
	ids, err := wr.ms.MsigGetPending(r.Context())
	writeResult(w, ids, err)
}

func (wr *walletRoutes) balance(w http.ResponseWriter, r *http.Request) {
	if !canRead(w, r) {
		return
	}
	cur, err := types.ParseCurrency(mux.Vars(r)["currency"])
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	bi, err := wr.ms.MsigBalance(r.Context(), cur)
	writeResult(w, bi, err)
}

func (wr *walletRoutes) permitting(w http.ResponseWriter, r *http.Request) {
	if !canRead(w, r) {
		return
	}
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		writeResult(w, nil, xerrors.Errorf("id %q: %w", vars["id"], types.ErrInvalidParams))
		return
	}
	who, err := address.NewFromString(vars["address"])
	if err != nil {
		writeResult(w, nil, xerrors.Errorf("address %q: %w", vars["address"], types.ErrInvalidParams))
		return
	}
	ok, err := wr.ms.MsigCheckPermitting(r.Context(), who, id)
	writeResult(w, ok, err)
}

func canRead(w http.ResponseWriter, r *http.Request) bool {
	if auth.HasPerm(r.Context(), api.DefaultPerms, api.PermRead) {
		return true
	}
	http.Error(w, "missing permission", http.StatusUnauthorized)
	return false
}

func writeResult(w http.ResponseWriter, v interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusOf(err))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":  types.ErrCodeOf(err).String(),
			"error": err.Error(),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case xerrors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case xerrors.Is(err, types.ErrUnauthorized):
		return http.StatusForbidden
	case xerrors.Is(err, types.ErrInvalidParams):
		return http.StatusBadRequest
	case xerrors.Is(err, types.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
