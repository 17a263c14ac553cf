package txPool

import (
	"errors"

	"github.com/memoio/go-betawallet/lib/address"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

var logger = logging.Logger("txPool")

var (
	ErrNotReady = errors.New("service not ready")
	ErrClosed   = errors.New("pool is closed")
)

// StateApplier is the state machine messages are applied to.
type StateApplier interface {
	ApplyMsg(msg *tx.Message, mid types.MsgID) (*tx.Receipt, error)
	GetNonce(addr address.Address) (uint64, error)
}

type request struct {
	sm  *tx.SignedMessage
	mid types.MsgID
	res chan types.Result[*tx.Receipt]
}
