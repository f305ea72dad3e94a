package esp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 2: round-tripping a packet built via BuildRadioTelegram then
// Build should parse back to equal packet_type, rorg, sender, destination,
// and status.
func TestBuildRadioTelegramRoundTrip(t *testing.T) {
	sender := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	destination := BroadcastAddress

	data, optional, err := BuildRadioTelegram(RORGBS4, []byte{0x01, 0x02, 0x03, 0x04}, sender, destination, false, 0x42)
	require.NoError(t, err)

	frame := Build(PacketTypeRadioERP1, data, optional)

	s := NewScanner()
	s.Feed(frame)
	pkt, err := s.Next()
	require.NoError(t, err)

	assert.Equal(t, PacketTypeRadioERP1, pkt.Type)
	assert.Equal(t, RORGBS4, pkt.RORG)
	assert.Equal(t, sender, pkt.Sender)
	assert.Equal(t, destination, pkt.Destination)
	assert.False(t, pkt.Learn)
	assert.Equal(t, byte(0x42), pkt.Status)
	assert.Equal(t, 0, s.Buffered())
}

func TestBuildRadioTelegramLearnBitBS1(t *testing.T) {
	sender := [4]byte{0x01, 0x02, 0x03, 0x04}
	data, _, err := BuildRadioTelegram(RORGBS1, []byte{0x00}, sender, BroadcastAddress, true, 0x00)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), data[1])

	data, _, err = BuildRadioTelegram(RORGBS1, []byte{0x00}, sender, BroadcastAddress, false, 0x00)
	require.NoError(t, err)
	assert.NotEqual(t, byte(0x00), data[1])
}

func TestBuildRadioTelegramRejectsUnsupportedRORG(t *testing.T) {
	_, _, err := BuildRadioTelegram(RORGSignal, []byte{0x00}, [4]byte{}, [4]byte{}, false, 0x00)
	assert.Error(t, err)
}

func TestBuildRadioTelegramRejectsWrongPayloadLength(t *testing.T) {
	_, _, err := BuildRadioTelegram(RORGBS4, []byte{0x01}, [4]byte{}, [4]byte{}, false, 0x00)
	assert.Error(t, err)
}
