package tx

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/memoio/go-betawallet/lib/types"
)

// Receipt records the outcome of one applied message.
type Receipt struct {
	MsgID  types.MsgID
	Method MsgType
	Height uint64 // apply order

	Err    types.ErrCode // return code
	ErrMsg string

	TxID   uint64   // propose, sign, delete
	Status uint8    // TxStatus after sign
	Amount *big.Int // withdraw, deposit

	Root types.MsgID // state root after apply
}

func (r *Receipt) Serialize() ([]byte, error) {
	return cbor.Marshal(r)
}

func (r *Receipt) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, r)
}

// Error rebuilds the apply error; nil on success.
func (r *Receipt) Error() error {
	return types.ErrorFromCode(r.Err, r.ErrMsg)
}

func (r *Receipt) SetErr(err error) {
	r.Err = types.ErrCodeOf(err)
	if err != nil {
		r.ErrMsg = err.Error()
	}
}
