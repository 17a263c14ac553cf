package signature

import (
	"crypto/ecdsa"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

const (
	SecretKeySize = 32
	SignatureSize = crypto.SignatureLength
)

var (
	ErrBadKeyType    = errors.New("unsupported key type")
	ErrBadPrivateKey = errors.New("bad private key")
	ErrBadSign       = errors.New("bad signature")
)

func GenerateKey() (*types.KeyInfo, error) {
	sk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return &types.KeyInfo{
		Type:      types.Secp256k1,
		SecretKey: crypto.FromECDSA(sk),
	}, nil
}

func ParsePrivateKey(privatekey []byte, typ types.KeyType) (*ecdsa.PrivateKey, error) {
	if typ != types.Secp256k1 {
		return nil, errors.Wrap(ErrBadKeyType, strconv.Itoa(int(typ)))
	}

	if len(privatekey) != SecretKeySize {
		return nil, ErrBadPrivateKey
	}

	sk, err := crypto.ToECDSA(privatekey)
	if err != nil {
		return nil, errors.Wrap(ErrBadPrivateKey, err.Error())
	}
	return sk, nil
}

func GetAdressFromKey(ki *types.KeyInfo) (address.Address, error) {
	sk, err := ParsePrivateKey(ki.SecretKey, ki.Type)
	if err != nil {
		return address.Undef, err
	}

	return address.FromEth(crypto.PubkeyToAddress(sk.PublicKey)), nil
}

// Sign signs keccak256(msg); the result is 65 bytes [R || S || V].
func Sign(ki *types.KeyInfo, msg []byte) ([]byte, error) {
	sk, err := ParsePrivateKey(ki.SecretKey, ki.Type)
	if err != nil {
		return nil, err
	}

	return crypto.Sign(crypto.Keccak256(msg), sk)
}

// Verify recovers the signer of msg and compares it with addr.
func Verify(addr address.Address, msg, sig []byte) (bool, error) {
	if len(sig) != SignatureSize {
		return false, ErrBadSign
	}

	pub, err := crypto.SigToPub(crypto.Keccak256(msg), sig)
	if err != nil {
		return false, errors.Wrap(ErrBadSign, err.Error())
	}

	return address.FromEth(crypto.PubkeyToAddress(*pub)) == addr, nil
}
