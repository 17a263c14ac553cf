package address

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
)

func TestSecp256k1Address(t *testing.T) {
	assert := assert.New(t)

	sk, err := crypto.GenerateKey()
	assert.NoError(err)

	payload, err := ToEthAddress(crypto.FromECDSAPub(&sk.PublicKey))
	assert.NoError(err)

	addr, err := NewAddress(payload)
	assert.NoError(err)
	assert.Equal(crypto.PubkeyToAddress(sk.PublicKey).Hex(), addr.String())

	maybe, err := NewFromString(addr.String())
	assert.NoError(err)
	assert.Equal(addr, maybe)

	lower, err := NewFromString(strings.ToLower(addr.String()))
	assert.NoError(err)
	assert.Equal(addr, lower)
}

func TestBadAddress(t *testing.T) {
	assert := assert.New(t)

	_, err := NewAddress([]byte{1, 2, 3})
	assert.Equal(ErrInvalidLength, err)

	_, err = NewFromString("0x1234")
	assert.Equal(ErrInvalidLength, err)

	_, err = NewFromString("0xzz5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.Error(err)

	// checksum of 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed with one letter flipped
	_, err = NewFromString("0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.Equal(ErrInvalidChecksum, err)
}

func TestAddressCodec(t *testing.T) {
	assert := assert.New(t)

	addr, err := NewFromString("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.NoError(err)

	jb, err := addr.MarshalJSON()
	assert.NoError(err)
	var ja Address
	assert.NoError(ja.UnmarshalJSON(jb))
	assert.Equal(addr, ja)

	type wrap struct {
		A Address
		B Address
	}

	cb, err := cbor.Marshal(wrap{A: addr})
	assert.NoError(err)
	var w wrap
	assert.NoError(cbor.Unmarshal(cb, &w))
	assert.Equal(addr, w.A)
	assert.True(w.B.Empty())
}
