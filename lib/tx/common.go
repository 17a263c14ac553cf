package tx

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

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
