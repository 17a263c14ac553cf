package tx

import (
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

type MsgType = uint32

const MsgMaxLen = 1<<16 - 1

var (
	ErrMsgLen      = errors.New("message length too longth")
	ErrMsgLenShort = errors.New("message length too short")
)

const (
	DataTxErr MsgType = iota

	ProposeTx // ProposeParams; by signer or admin
	SignTx    // TxIDParams; by signer
	DeleteTx  // TxIDParams; by admin or proposer

	SetAdmin // AdminParams; by admin
	Withdraw // AmountParams, nil amount is everything; by admin
	Deposit  // AmountParams; by anyone
)

func MethodName(m MsgType) string {
	switch m {
	case ProposeTx:
		return "propose"
	case SignTx:
		return "sign"
	case DeleteTx:
		return "delete"
	case SetAdmin:
		return "setAdmin"
	case Withdraw:
		return "withdraw"
	case Deposit:
		return "deposit"
	default:
		return "unknown-" + strconv.FormatUint(uint64(m), 10)
	}
}

// MsgID(message) as key
type Message struct {
	Version uint32

	From  address.Address
	Nonce uint64

	Method MsgType
	Params []byte // decode accoording to method
}

func NewMessage() Message {
	return Message{
		Version: 1,
	}
}

func (m *Message) Serialize() ([]byte, error) {
	res, err := cbor.Marshal(m)
	if err != nil {
		return nil, err
	}

	if len(res) > int(MsgMaxLen) {
		return nil, ErrMsgLen
	}
	return res, nil
}

// get message hash for sign
func (m *Message) Hash() (types.MsgID, error) {
	res, err := m.Serialize()
	if err != nil {
		return types.Undef, err
	}

	return types.NewMsgID(res), nil
}

func (m *Message) Deserialize(b []byte) (types.MsgID, error) {
	err := cbor.Unmarshal(b, m)
	if err != nil {
		return types.Undef, err
	}

	return types.NewMsgID(b), nil
}

// verify:
// 1. signature is right according to from
// 2. nonce is right
type SignedMessage struct {
	Message
	Signature types.Signature // signed by Tx.From over the message id
}

func (sm *SignedMessage) Serialize() ([]byte, error) {
	res, err := sm.Message.Serialize()
	if err != nil {
		return nil, err
	}

	rLen := len(res)

	sbyte, err := sm.Signature.Serialize()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2+rLen+len(sbyte))
	binary.BigEndian.PutUint16(buf[:2], uint16(rLen))

	copy(buf[2:2+rLen], res)
	copy(buf[2+rLen:], sbyte)

	return buf, nil
}

func (sm *SignedMessage) Deserialize(b []byte) (types.MsgID, error) {
	if len(b) < 2 {
		return types.Undef, ErrMsgLenShort
	}

	rLen := binary.BigEndian.Uint16(b[:2])
	if len(b) < 2+int(rLen) {
		return types.Undef, ErrMsgLenShort
	}

	m := new(Message)
	mid, err := m.Deserialize(b[2 : 2+rLen])
	if err != nil {
		return types.Undef, err
	}

	sig := new(types.Signature)
	err = sig.Deserialize(b[2+rLen:])
	if err != nil {
		return types.Undef, err
	}

	sm.Message = *m
	sm.Signature = *sig

	return mid, nil
}
