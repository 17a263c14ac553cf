package types

import (
	"github.com/fxamacker/cbor/v2"
)

type SigType byte

const (
	SigUnknown = SigType(iota)
	SigSecp256k1
)

func (t SigType) String() string {
	switch t {
	case SigSecp256k1:
		return "secp256k1"
	default:
		return "unknown"
	}
}

// Signature is a 65-byte recoverable secp256k1 signature; the signer
// is recovered from it, not carried alongside.
type Signature struct {
	Type SigType
	Data []byte
}

func (s *Signature) Serialize() ([]byte, error) {
	return cbor.Marshal(s)
}

func (s *Signature) Deserialize(b []byte) error {
	return cbor.Unmarshal(b, s)
}
