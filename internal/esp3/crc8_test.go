package esp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC8Vectors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", []byte{}, 0x00},
		{"single zero byte", []byte{0x00}, 0x00},
		{"header bytes", []byte{0x00, 0x0A, 0x07, 0x01}, 0xEB},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CRC8(tc.data))
		})
	}
}

func TestCRC8TableConsistency(t *testing.T) {
	// The table-driven implementation must agree with a bit-by-bit
	// computation of the same polynomial (x^8+x^2+x+1, no reflection)
	// for every single-byte message.
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
		assert.Equal(t, crc8Table[i], crc, "byte %d", i)
	}
}
