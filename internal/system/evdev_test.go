package system

import (
	"encoding/binary"
	"testing"
)

func event(tvSize int, typ, code uint16, value int32) []byte {
	rec := make([]byte, tvSize+8)
	binary.LittleEndian.PutUint16(rec[tvSize:], typ)
	binary.LittleEndian.PutUint16(rec[tvSize+2:], code)
	binary.LittleEndian.PutUint32(rec[tvSize+4:], uint32(value))
	return rec
}

func TestKeyPresses(t *testing.T) {
	for _, tvSize := range []int{8, 16} {
		var buf []byte
		buf = append(buf, event(tvSize, evKey, KeySpace, 1)...)
		buf = append(buf, event(tvSize, evKey, KeySpace, 0)...) // release
		buf = append(buf, event(tvSize, 0x00, 0, 0)...)         // EV_SYN
		buf = append(buf, event(tvSize, evKey, KeyF4, 2)...)    // autorepeat
		buf = append(buf, event(tvSize, evKey, KeyF4, 1)...)
		buf = append(buf, 0x01, 0x02) // trailing partial record

		got := keyPresses(buf, tvSize)
		if len(got) != 2 || got[0] != KeySpace || got[1] != KeyF4 {
			t.Errorf("tvSize %d: presses = %v", tvSize, got)
		}
	}
}

func TestKeyPressesShortBuffer(t *testing.T) {
	if got := keyPresses(make([]byte, 10), 16); len(got) != 0 {
		t.Errorf("presses from a short buffer: %v", got)
	}
}
