package esp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
)

func mustHex(bs ...byte) []byte { return bs }

func TestScannerIncompleteOnEmptyBuffer(t *testing.T) {
	s := NewScanner()
	_, err := s.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestScannerIncompleteOnLoneSyncByte(t *testing.T) {
	s := NewScanner()
	s.Feed([]byte{0x55})
	_, err := s.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestScannerS1TemperatureSensorBS4(t *testing.T) {
	data := []byte{0xA5, 0x00, 0x00, 0x55, 0x08, 0x01, 0x81, 0xB7, 0x44, 0x80}
	optional := []byte{0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x49}
	frame := Build(PacketTypeRadioERP1, data, optional)

	s := NewScanner()
	s.Feed(frame)
	pkt, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, KindRadio, pkt.Kind)
	assert.Equal(t, RORGBS4, pkt.RORG)
	assert.Equal(t, [4]byte{0x01, 0x81, 0xB7, 0x44}, pkt.Sender)
	assert.False(t, pkt.Learn)
	assert.Equal(t, 0, s.Buffered())
}

func TestScannerS2RPSRocker(t *testing.T) {
	data := []byte{0xF6, 0x70, 0x00, 0x29, 0x89, 0x79, 0x30}
	frame := Build(PacketTypeRadioERP1, data, nil)

	s := NewScanner()
	s.Feed(frame)
	pkt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, RORGRPS, pkt.RORG)
	assert.False(t, pkt.Learn)
	assert.Equal(t, byte(0x30), pkt.Status)
}

func TestScannerS3UTETeachInResponse(t *testing.T) {
	reqData := append([]byte{0xD4, 0xA0, 0xFF, 0x01, 0x16, 0x05, 0x02, 0xA5}, mustHex(0x11, 0x22, 0x33, 0x44, 0x00)...)
	frame := Build(PacketTypeRadioERP1, reqData, []byte{0x03, 0xAA, 0xBB, 0xCC, 0xDD, 0xFF, 0x00})

	s := NewScanner()
	s.Feed(frame)
	req, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, KindUTETeachIn, req.Kind)
	assert.True(t, req.UTE.TeachIn())

	data, optional := BuildUTEResponse(req, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, UTEResponseCodeTeachInAccepted)
	assert.Equal(t, []byte{0xD4, 0x91, 0xFF, 0x01, 0x16, 0x05, 0x02, 0xA5, 0xDE, 0xAD, 0xBE, 0xEF, 0x00}, data)
	assert.Equal(t, req.Sender[:], optional[1:5])
}

func TestScannerS4CommonCommandRoundTrip(t *testing.T) {
	respData := []byte{byte(RetOK), 0x01, 0x81, 0xB7, 0x44, 0x00}
	frame := Build(PacketTypeResponse, respData, nil)

	s := NewScanner()
	s.Feed(frame)
	pkt, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, KindResponse, pkt.Kind)
	assert.Equal(t, RetOK, pkt.ReturnCode)
	baseID := [4]byte{pkt.ResponseData[0], pkt.ResponseData[1], pkt.ResponseData[2], pkt.ResponseData[3]}
	assert.Equal(t, [4]byte{0x01, 0x81, 0xB7, 0x44}, baseID)
}

func TestScannerHeaderCrcMismatchResyncs(t *testing.T) {
	data := []byte{0xA5, 0x00, 0x00, 0x55, 0x08, 0x01, 0x81, 0xB7, 0x44, 0x80}
	optional := []byte{0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x49}
	good := Build(PacketTypeRadioERP1, data, optional)

	corrupted := append([]byte{}, good...)
	corrupted[5] ^= 0xFF // flip the header CRC

	s := NewScanner()
	s.Feed(corrupted)
	s.Feed(good)

	_, err := s.Next()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeCrcMismatch, appErr.Code)

	// The S1 payload itself contains a 0x55 byte: the scanner resyncs on it
	// first, and the header bytes read from there fail the CRC check too.
	_, err = s.Next()
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeCrcMismatch, appErr.Code)

	pkt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, RORGBS4, pkt.RORG)
}

func TestScannerTwoConcatenatedFrames(t *testing.T) {
	frame := Build(PacketTypeEvent, []byte{byte(EventCoReady)}, nil)

	s := NewScanner()
	s.Feed(frame)
	s.Feed(frame)

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, KindEvent, first.Kind)

	second, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, KindEvent, second.Kind)

	assert.Equal(t, 0, s.Buffered())
}

func TestScannerEmptyBodyIsValidGeneric(t *testing.T) {
	frame := Build(PacketTypeCommonCommand, nil, nil)
	s := NewScanner()
	s.Feed(frame)
	pkt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, KindGeneric, pkt.Kind)
	assert.Empty(t, pkt.Data)
}
