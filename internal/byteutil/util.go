// Package byteutil encodes bbolt keys.
package byteutil

import "encoding/binary"

// RoundKey encodes a round number so that bbolt's byte order matches round order.
func RoundKey(round int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(round))
	return b
}

// ParseRoundKey decodes a key written by RoundKey.
func ParseRoundKey(b []byte) (int, bool) {
	if len(b) != 4 {
		return 0, false
	}

	return int(binary.BigEndian.Uint32(b)), true
}
