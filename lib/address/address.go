package address

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidLength is returned when encountering an address of invalid length.
	ErrInvalidLength = errors.New("invalid address length")
	// ErrInvalidChecksum is returned when a mixed-case address fails EIP-55.
	ErrInvalidChecksum = errors.New("invalid address checksum")
	// ErrInvalidPayload is returned when encountering an invalid hex payload.
	ErrInvalidPayload = errors.New("invalid address payload")
)

// UndefAddressString is the string used to represent an empty address when encoded to a string.
var UndefAddressString = "<empty>"

// AddressLength is the length of an account identifier
const AddressLength = common.AddressLength

// Address is an account identifier: last 20 bytes of keccak(pubkey).
type Address struct{ str string }

// Undef is the type that represents an undefined address.
var Undef = Address{}

func (a Address) Len() int {
	return len(a.str)
}

// Bytes returns the address as bytes.
func (a Address) Bytes() []byte {
	return []byte(a.str)
}

// String returns the EIP-55 checksummed hex form.
func (a Address) String() string {
	if a == Undef {
		return UndefAddressString
	}
	return a.ToEth().Hex()
}

// Empty returns true if the address is empty, false otherwise.
func (a Address) Empty() bool {
	return a == Undef
}

// Hex is the lower-case hex form without prefix, used in keys.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Bytes())
}

func (a Address) ToEth() common.Address {
	return common.BytesToAddress(a.Bytes())
}

// for jsonrpc
// UnmarshalJSON implements the json unmarshal interface.
func (a *Address) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" || s == UndefAddressString {
		*a = Undef
		return nil
	}

	addr, err := NewFromString(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// MarshalJSON implements the json marshal interface.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// MarshalCBOR stores the raw 20 bytes.
func (a Address) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.Bytes())
}

func (a *Address) UnmarshalCBOR(b []byte) error {
	var raw []byte
	err := cbor.Unmarshal(b, &raw)
	if err != nil {
		return err
	}

	if len(raw) == 0 {
		*a = Undef
		return nil
	}

	addr, err := NewAddress(raw)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ToEthAddress returns the 20 byte account of an uncompressed secp256k1 public key.
// pubkey is 65 bytes
func ToEthAddress(pubkey []byte) ([]byte, error) {
	if len(pubkey) != 65 {
		return nil, ErrInvalidLength
	}

	d := sha3.NewLegacyKeccak256()
	d.Write(pubkey[1:])
	payload := d.Sum(nil)
	return payload[12:], nil
}

func NewAddress(payload []byte) (Address, error) {
	if len(payload) != AddressLength {
		return Undef, ErrInvalidLength
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Address{string(buf)}, nil
}

func FromEth(ea common.Address) Address {
	if ea == (common.Address{}) {
		return Undef
	}
	return Address{string(ea.Bytes())}
}

// NewFromString parses a 0x-prefixed hex address; mixed case must be a valid EIP-55 checksum.
func NewFromString(s string) (Address, error) {
	if s == "" || s == UndefAddressString {
		return Undef, ErrInvalidLength
	}

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	if len(s) != 2+2*AddressLength {
		return Undef, ErrInvalidLength
	}

	if !common.IsHexAddress(s) {
		return Undef, ErrInvalidPayload
	}

	ea := common.HexToAddress(s)

	body := s[2:]
	if strings.ToLower(body) != body && strings.ToUpper(body) != body {
		if ea.Hex()[2:] != body {
			return Undef, ErrInvalidChecksum
		}
	}

	return NewAddress(ea.Bytes())
}
