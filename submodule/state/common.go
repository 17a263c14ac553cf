package state

import (
	"encoding/binary"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/types"
)

var logger = logging.Logger("state")

var (
	beginRoot = types.NewMsgID([]byte("betawallet"))
)

// genesis part of the registry; never rewritten
type walletInfoStored struct {
	Owner     address.Address
	Signers   []address.Address
	Threshold uint32
}

func (wi *walletInfoStored) Serialize() ([]byte, error) {
	return cbor.Marshal(wi)
}

func (wi *walletInfoStored) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, wi)
}

type bitsetStored struct {
	Val []uint64
}

type pendingTxStored struct {
	ID        uint64
	Proposer  address.Address
	Kind      types.TxKind
	Payload   types.Payload
	Signed    bitsetStored // bit i: signer i approved
	Status    types.TxStatus
	CreatedAt int64
	UpdatedAt int64
}

func (pt *pendingTxStored) Serialize() ([]byte, error) {
	return cbor.Marshal(pt)
}

func (pt *pendingTxStored) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, pt)
}

func (pt *pendingTxStored) signed() *bitset.BitSet {
	return bitset.From(pt.Signed.Val)
}

func (pt *pendingTxStored) copy() *pendingTxStored {
	npt := *pt
	npt.Signed.Val = append([]uint64(nil), pt.Signed.Val...)
	if pt.Payload.Amount != nil {
		npt.Payload.Amount = new(big.Int).Set(pt.Payload.Amount)
	}
	return &npt
}

type idList struct {
	IDs []uint64
}

func (il *idList) Serialize() ([]byte, error) {
	return cbor.Marshal(il)
}

func (il *idList) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, il)
}

func encodeUint(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, xerrors.Errorf("uint64 needs 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func removeID(ids []uint64, id uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
