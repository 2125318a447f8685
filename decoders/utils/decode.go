package utils

import (
	"bytes"
	"encoding/binary"
)

// BinaryDecoder reads each destination in order from buf, big-endian,
// stopping at the first error (typically io.EOF on a truncated PDU).
func BinaryDecoder(buf *bytes.Buffer, dests ...interface{}) error {
	for _, dest := range dests {
		if err := binary.Read(buf, binary.BigEndian, dest); err != nil {
			return err
		}
	}
	return nil
}
