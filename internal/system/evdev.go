package system

import "encoding/binary"

const (
	evKey = 0x01

	// Linux input-event-codes.h
	KeySpace = 57
	KeyF4    = 62
)

// keyPresses decodes a buffer of little-endian input_event records and returns the codes
// of keys that went down. tvSize is the size of struct timeval on this arch.
func keyPresses(buf []byte, tvSize int) []uint16 {
	eventSize := tvSize + 2 + 2 + 4
	var codes []uint16
	// Parse as a sequence of input_event records.
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		// type and code are immediately after timeval.
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && value == 1 {
			codes = append(codes, code)
		}
	}
	return codes
}
