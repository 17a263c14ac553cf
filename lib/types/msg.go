package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
)

const MsgIDLen = 32

var (
	ErrMsgLen = errors.New("illegal msg id length")
)

// MsgID is keccak256 of the serialized message; also used for state roots.
type MsgID struct{ str string }

var Undef = MsgID{}

func NewMsgID(data []byte) MsgID {
	return MsgID{string(crypto.Keccak256(data))}
}

func (m MsgID) Bytes() []byte {
	return []byte(m.str)
}

func (m MsgID) String() string {
	return "0x" + hex.EncodeToString(m.Bytes())
}

func (m MsgID) Hex() string {
	return hex.EncodeToString(m.Bytes())
}

func FromHexString(s string) (MsgID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Undef, err
	}

	return FromBytes(b)
}

func FromBytes(b []byte) (MsgID, error) {
	if len(b) != MsgIDLen {
		return Undef, ErrMsgLen
	}

	return MsgID{string(b)}, nil
}

func (m MsgID) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MsgID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		*m = Undef
		return nil
	}

	id, err := FromHexString(s)
	if err != nil {
		return err
	}
	*m = id
	return nil
}

func (m MsgID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(m.Bytes())
}

func (m *MsgID) UnmarshalCBOR(b []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(b, &raw); err != nil {
		return err
	}

	if len(raw) == 0 {
		*m = Undef
		return nil
	}

	id, err := FromBytes(raw)
	if err != nil {
		return err
	}
	*m = id
	return nil
}
