package txPool

import (
	"context"
	"sync"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

// Signer signs message ids for local accounts.
type Signer interface {
	WalletSign(addr address.Address, msg []byte) ([]byte, error)
}

// PushPool fills nonce and signature for local accounts and
// hands the message to the InPool.
type PushPool struct {
	sync.Mutex
	*InPool

	signer Signer
	nonces map[address.Address]uint64 // next nonce to use
}

func NewPushPool(ip *InPool, s Signer) *PushPool {
	return &PushPool{
		InPool: ip,
		signer: s,
		nonces: make(map[address.Address]uint64),
	}
}

func (pp *PushPool) nextNonce(from address.Address) (uint64, error) {
	sn, err := pp.state.GetNonce(from)
	if err != nil {
		return 0, err
	}

	ln, ok := pp.nonces[from]
	if ok && ln > sn {
		return ln, nil
	}
	return sn, nil
}

// AddMessage signs params for method as from and waits for the receipt.
func (pp *PushPool) AddMessage(ctx context.Context, from address.Address, method tx.MsgType, params []byte) (*tx.Receipt, error) {
	pp.Lock()

	nonce, err := pp.nextNonce(from)
	if err != nil {
		pp.Unlock()
		return nil, err
	}

	sm := &tx.SignedMessage{
		Message: tx.NewMessage(),
	}
	sm.From = from
	sm.Nonce = nonce
	sm.Method = method
	sm.Params = params

	mid, err := sm.Hash()
	if err != nil {
		pp.Unlock()
		return nil, err
	}

	sig, err := pp.signer.WalletSign(from, mid.Bytes())
	if err != nil {
		pp.Unlock()
		return nil, xerrors.Errorf("sign msg as %s: %w", from, err)
	}
	sm.Signature = types.Signature{
		Type: types.SigSecp256k1,
		Data: sig,
	}

	// queue order is nonce order; only a queued message uses up its nonce
	resChan, queued := pp.Submit(ctx, sm)
	if !queued {
		pp.Unlock()
		res := <-resChan
		return res.Unwrap()
	}
	pp.nonces[from] = nonce + 1
	pp.Unlock()

	logger.Debugw("push message", "id", mid, "from", from, "nonce", nonce, "method", tx.MethodName(method))

	select {
	case res := <-resChan:
		pp.settle(from, nonce, res)
		return res.Unwrap()
	case <-ctx.Done():
		// the apply loop still owns the message
		go pp.wait(from, nonce, resChan)
		return nil, ctx.Err()
	case <-pp.done:
		return nil, ErrClosed
	}
}

func (pp *PushPool) wait(from address.Address, nonce uint64, resChan <-chan types.Result[*tx.Receipt]) {
	select {
	case res := <-resChan:
		pp.settle(from, nonce, res)
	case <-pp.done:
	}
}

// settle drops the cached nonce of from when the message with nonce failed
// and nothing was queued after it; the next push reads state again.
func (pp *PushPool) settle(from address.Address, nonce uint64, res types.Result[*tx.Receipt]) {
	if res.IsOk() {
		return
	}

	pp.Lock()
	if pp.nonces[from] == nonce+1 {
		delete(pp.nonces, from)
	}
	pp.Unlock()
}
