package txPool

import (
	"context"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/crypto/signature"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/submodule/metrics"
)

// InPool verifies signed messages and applies them one at a time.
// Once a message is queued it is applied even if the submitter stops waiting.
type InPool struct {
	sync.RWMutex

	ctx  context.Context
	done chan struct{}

	state StateApplier
	tx.TxStore

	// closed is set under the write lock before the queue is drained;
	// enqueues hold the read lock, so nothing lands after the drain.
	started bool
	closed  bool
	msgChan chan *request
}

func NewInPool(ctx context.Context, st StateApplier, ts tx.TxStore) *InPool {
	return &InPool{
		ctx:     ctx,
		done:    make(chan struct{}),
		state:   st,
		TxStore: ts,
		msgChan: make(chan *request, 128),
	}
}

func (mp *InPool) Start() {
	mp.Lock()
	defer mp.Unlock()

	if mp.started {
		return
	}
	mp.started = true

	go mp.process()
}

// Done is closed when the apply loop exits.
func (mp *InPool) Done() <-chan struct{} {
	return mp.done
}

func (mp *InPool) process() {
	defer close(mp.done)

	for {
		select {
		case <-mp.ctx.Done():
			logger.Debug("process message done")
			mp.Lock()
			mp.closed = true
			mp.Unlock()
			mp.drain()
			return
		case req := <-mp.msgChan:
			req.res <- mp.apply(req)
		}
	}
}

// drain fails what is still queued at shutdown.
func (mp *InPool) drain() {
	for {
		select {
		case req := <-mp.msgChan:
			req.res <- types.Fail[*tx.Receipt](ErrClosed)
		default:
			return
		}
	}
}

func (mp *InPool) apply(req *request) types.Result[*tx.Receipt] {
	start := time.Now()

	ctx, _ := tag.New(mp.ctx, tag.Upsert(metrics.MsgMethod, tx.MethodName(req.sm.Method)))

	_, err := mp.PutTxMsg(req.sm)
	if err != nil {
		return types.Fail[*tx.Receipt](xerrors.Errorf("store msg %s: %w", req.mid, err))
	}

	r, err := mp.state.ApplyMsg(&req.sm.Message, req.mid)
	if err != nil {
		fctx, _ := tag.New(ctx, tag.Upsert(metrics.ErrCode, types.ErrCodeOf(err).String()))
		stats.Record(fctx, metrics.TxMessageFailure.M(1))
		logger.Debugw("apply message fails", "id", req.mid, "from", req.sm.From, "nonce", req.sm.Nonce, "err", err)
		return types.Fail[*tx.Receipt](err)
	}

	r.Height = mp.Height() + 1
	err = mp.PutReceipt(r)
	if err != nil {
		// state already moved; the receipt is still returned
		logger.Errorf("store receipt %s: %s", req.mid, err)
	}

	stats.Record(ctx, metrics.TxMessageApply.M(metrics.SinceInMilliseconds(start)))
	if r.Err == types.CodeOK {
		stats.Record(ctx, metrics.TxMessageSuccess.M(1))
	} else {
		fctx, _ := tag.New(ctx, tag.Upsert(metrics.ErrCode, r.Err.String()))
		stats.Record(fctx, metrics.TxMessageFailure.M(1))
	}

	logger.Debugw("message applied", "id", req.mid, "method", tx.MethodName(r.Method), "height", r.Height, "code", r.Err)

	return types.Ok(r)
}

// Verify checks the signature and that the nonce is not used yet.
func (mp *InPool) Verify(sm *tx.SignedMessage) (types.MsgID, error) {
	mid, err := sm.Hash()
	if err != nil {
		return mid, xerrors.Errorf("hash msg: %s: %w", err, types.ErrInvalidParams)
	}

	if sm.From.Empty() {
		return mid, xerrors.Errorf("msg %s has no sender: %w", mid, types.ErrInvalidParams)
	}

	if sm.Signature.Type != types.SigSecp256k1 {
		return mid, xerrors.Errorf("msg %s sig type %d: %w", mid, sm.Signature.Type, types.ErrInvalidSign)
	}

	ok, err := signature.Verify(sm.From, mid.Bytes(), sm.Signature.Data)
	if err != nil || !ok {
		return mid, xerrors.Errorf("msg %s from %s: %w", mid, sm.From, types.ErrInvalidSign)
	}

	nonce, err := mp.state.GetNonce(sm.From)
	if err != nil {
		return mid, err
	}

	if sm.Nonce < nonce {
		return mid, xerrors.Errorf("msg %s nonce %d, expected at least %d: %w", mid, sm.Nonce, nonce, types.ErrLowNonce)
	}

	return mid, nil
}

// Submit verifies sm and queues it; the result arrives on the returned
// channel. queued reports whether sm reached the apply loop, a message
// that did not can never be applied.
func (mp *InPool) Submit(ctx context.Context, sm *tx.SignedMessage) (res <-chan types.Result[*tx.Receipt], queued bool) {
	rc := make(chan types.Result[*tx.Receipt], 1)

	stats.Record(ctx, metrics.TxMessageReceived.M(1))

	mp.RLock()
	started := mp.started
	mp.RUnlock()
	if !started {
		rc <- types.Fail[*tx.Receipt](ErrNotReady)
		return rc, false
	}

	mid, err := mp.Verify(sm)
	if err != nil {
		logger.Debugw("reject message", "from", sm.From, "nonce", sm.Nonce, "err", err)
		rc <- types.Fail[*tx.Receipt](err)
		return rc, false
	}

	if err := mp.enqueue(ctx, &request{sm: sm, mid: mid, res: rc}); err != nil {
		rc <- types.Fail[*tx.Receipt](err)
		return rc, false
	}

	return rc, true
}

func (mp *InPool) enqueue(ctx context.Context, req *request) error {
	mp.RLock()
	defer mp.RUnlock()

	switch {
	case mp.closed || mp.ctx.Err() != nil:
		return ErrClosed
	case ctx.Err() != nil:
		return ctx.Err()
	}

	select {
	case mp.msgChan <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-mp.ctx.Done():
		return ErrClosed
	}
}

// Push submits sm and waits for its receipt.
func (mp *InPool) Push(ctx context.Context, sm *tx.SignedMessage) (*tx.Receipt, error) {
	res, _ := mp.Submit(ctx, sm)
	select {
	case r := <-res:
		return r.Unwrap()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-mp.done:
		return nil, ErrClosed
	}
}
