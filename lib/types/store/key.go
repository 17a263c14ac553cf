package store

import (
	"strconv"
	"strings"
)

// KeyDelimiter seps kv key
const KeyDelimiter = "/"

type KeyType uint32

const (
	MetaTypeWalletInfo KeyType = iota + 1 // owner, admin, signers, threshold
	MetaTypeWalletAdmin
	MetaTypePendingTx     // id -> pending tx
	MetaTypePendingTxList // ids still pending, in order
	MetaTypeTxSeq         // id sequence
	MetaTypeBalance       // currency -> amount
	MetaTypeNonce         // account -> next nonce
	MetaTypeStateRoot
	MetaTypeMsg     // msg id -> signed message
	MetaTypeReceipt // msg id -> receipt
	MetaTypeMsgHeight
	MetaTypeAuthSecret // jwt hmac key
)

func (k KeyType) String() string {
	return strconv.FormatUint(uint64(k), 10)
}

// NewKey joins the type and the parts with KeyDelimiter,
// e.g. NewKey(MetaTypePendingTx, 7) -> "3/7".
func NewKey(kt KeyType, vals ...interface{}) []byte {
	elems := make([]string, 0, len(vals)+1)
	elems = append(elems, kt.String())
	for _, v := range vals {
		switch val := v.(type) {
		case string:
			elems = append(elems, val)
		case []byte:
			elems = append(elems, string(val))
		case uint64:
			elems = append(elems, strconv.FormatUint(val, 10))
		case uint32:
			elems = append(elems, strconv.FormatUint(uint64(val), 10))
		case int:
			elems = append(elems, strconv.Itoa(val))
		case interface{ String() string }:
			elems = append(elems, val.String())
		}
	}

	return []byte(strings.Join(elems, KeyDelimiter))
}
