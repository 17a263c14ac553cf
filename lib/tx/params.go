package tx

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

type ProposeParams struct {
	Kind    types.TxKind
	Payload types.Payload
}

func (p *ProposeParams) Serialize() ([]byte, error) {
	return cbor.Marshal(p)
}

func (p *ProposeParams) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, p)
}

type TxIDParams struct {
	ID uint64
}

func (p *TxIDParams) Serialize() ([]byte, error) {
	return cbor.Marshal(p)
}

func (p *TxIDParams) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, p)
}

type AdminParams struct {
	Admin address.Address
}

func (p *AdminParams) Serialize() ([]byte, error) {
	return cbor.Marshal(p)
}

func (p *AdminParams) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, p)
}

// AmountParams is used by deposit and withdraw; a nil Amount withdraws everything.
type AmountParams struct {
	Currency types.Currency
	Amount   *big.Int
}

func (p *AmountParams) Serialize() ([]byte, error) {
	return cbor.Marshal(p)
}

func (p *AmountParams) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, p)
}
