package wallet

import (
	"context"

	"go.opencensus.io/stats"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
	"github.com/memoio/go-betawallet/submodule/metrics"
	"github.com/memoio/go-betawallet/submodule/state"
	"github.com/memoio/go-betawallet/submodule/txPool"
)

var logger = logging.Logger("wallet-service")

var (
	_ api.IMultiSig = (*Service)(nil)
	_ api.IState    = (*StateAPI)(nil)
)

// DefaultFunc resolves the sender when a call leaves it empty.
type DefaultFunc func(ctx context.Context) (address.Address, error)

// Service runs the wallet state machine locally: writes become signed
// messages applied by the pool, reads go to the state directly.
type Service struct {
	ctx context.Context

	sm *state.StateMgr
	ts *tx.TxStoreImpl
	pp *txPool.PushPool

	defaultAddr DefaultFunc
}

// New opens the wallet kept in ds; gen is only needed on first start.
func New(ctx context.Context, ds store.KVStore, gen *types.WalletGenesis, signer txPool.Signer, def DefaultFunc) (*Service, error) {
	sm, err := state.NewStateMgr(ds, gen)
	if err != nil {
		return nil, xerrors.Errorf("load wallet state: %w", err)
	}

	ts, err := tx.NewTxStore(ds)
	if err != nil {
		return nil, xerrors.Errorf("open tx store: %w", err)
	}

	ip := txPool.NewInPool(ctx, sm, ts)

	s := &Service{
		ctx:         ctx,
		sm:          sm,
		ts:          ts,
		pp:          txPool.NewPushPool(ip, signer),
		defaultAddr: def,
	}

	return s, nil
}

func (s *Service) Start() {
	s.pp.Start()
	s.recordPending()
	logger.Info("wallet service started")
}

// Done is closed once the pool stopped applying messages.
func (s *Service) Done() <-chan struct{} {
	return s.pp.Done()
}

func (s *Service) StateAPI() *StateAPI {
	return &StateAPI{s}
}

func (s *Service) recordPending() {
	stats.Record(s.ctx, metrics.TxPending.M(int64(len(s.sm.GetPending()))))
}

func (s *Service) sender(ctx context.Context, from address.Address) (address.Address, error) {
	if !from.Empty() {
		return from, nil
	}

	if s.defaultAddr == nil {
		return address.Undef, xerrors.Errorf("no sender and no default address: %w", types.ErrInvalidParams)
	}

	from, err := s.defaultAddr(ctx)
	if err != nil {
		return address.Undef, err
	}
	if from.Empty() {
		return address.Undef, xerrors.Errorf("no sender and no default address: %w", types.ErrInvalidParams)
	}
	return from, nil
}

type serializer interface {
	Serialize() ([]byte, error)
}

// push sends one message as from and turns a failed receipt into its error.
func (s *Service) push(ctx context.Context, from address.Address, method tx.MsgType, params serializer) (*tx.Receipt, error) {
	from, err := s.sender(ctx, from)
	if err != nil {
		return nil, err
	}

	pb, err := params.Serialize()
	if err != nil {
		return nil, xerrors.Errorf("encode %s params: %s: %w", tx.MethodName(method), err, types.ErrInvalidParams)
	}

	r, err := s.pp.AddMessage(ctx, from, method, pb)
	if err != nil {
		return nil, err
	}

	switch method {
	case tx.ProposeTx, tx.SignTx, tx.DeleteTx:
		s.recordPending()
	}

	return r, r.Error()
}
