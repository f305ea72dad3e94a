package esp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBitsDocumentationNumbering(t *testing.T) {
	buf := []byte{0b10110010, 0b01010101}
	assert.Equal(t, uint64(1), GetBits(buf, 0, 1))   // MSB of byte 0
	assert.Equal(t, uint64(0), GetBits(buf, 1, 1))
	assert.Equal(t, uint64(0b1011), GetBits(buf, 0, 4))
	assert.Equal(t, uint64(0b00100101), GetBits(buf, 4, 8))
}

func TestSetBitsRoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	require.NoError(t, SetBits(buf, 4, 8, 0xAB))
	assert.Equal(t, uint64(0xAB), GetBits(buf, 4, 8))
}

func TestSetBitsRejectsOverflow(t *testing.T) {
	buf := make([]byte, 1)
	err := SetBits(buf, 0, 4, 0x10)
	assert.Error(t, err)
}

// A VLD payload can exceed 8 bytes; GetBits/SetBits must not overflow a
// uint64 accumulator for fields living near the end of such a buffer.
func TestGetSetBitsLongBuffer(t *testing.T) {
	buf := make([]byte, 16)
	require.NoError(t, SetBits(buf, 120, 8, 0xAB))
	assert.Equal(t, uint64(0xAB), GetBits(buf, 120, 8))
	assert.Equal(t, byte(0xAB), buf[15])
	for i := 0; i < 15; i++ {
		assert.Equal(t, byte(0), buf[i])
	}
}

func TestGetSetBitsFromByte(t *testing.T) {
	b := byte(0b00001000)
	assert.Equal(t, uint8(1), GetBitsFromByte(b, 4, 1))
	out, err := SetBitsToByte(0, 4, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, b, out)
}
