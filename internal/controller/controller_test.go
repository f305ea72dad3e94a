package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

type nopTransport struct{}

func (nopTransport) Read(p []byte) (int, error)  { return 0, nil }
func (nopTransport) Write(p []byte) (int, error) { return len(p), nil }
func (nopTransport) Close() error                { return nil }

func newTestController(t *testing.T) *Controller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.QueueSize = 16
	return New(nopTransport{}, cfg, nil)
}

func TestDispatchResponseResolvesOwnAddress(t *testing.T) {
	c := newTestController(t)
	c.cmdQueue = []esp3.CommandCode{esp3.CoRdIDBase}

	data := []byte{byte(esp3.RetOK), 0xDE, 0xAD, 0xBE, 0xEF, 0x00}
	p := &esp3.Packet{Kind: esp3.KindResponse, Data: data, ReturnCode: esp3.RetOK, ResponseData: data[1:]}

	c.dispatch(p)

	assert.Equal(t, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, c.OwnAddress())
	assert.Equal(t, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, c.Identity().BaseID)
}

func TestDispatchResponseWithoutPendingCommandIsIgnored(t *testing.T) {
	c := newTestController(t)
	p := &esp3.Packet{Kind: esp3.KindResponse, ReturnCode: esp3.RetOK, ResponseData: []byte{0x01}}
	c.dispatch(p) // must not panic
	assert.Equal(t, [4]byte{}, c.OwnAddress())
}

func TestDispatchRadioPacketReachesReceiveQueue(t *testing.T) {
	c := newTestController(t)
	data := []byte{0xF6, 0x70, 0x00, 0x29, 0x89, 0x79, 0x30}
	p := &esp3.Packet{Kind: esp3.KindRadio, Data: data, RORG: esp3.RORGRPS, Sender: [4]byte{0x00, 0x29, 0x89, 0x79}}

	c.dispatch(p)

	got, err := c.receive.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, esp3.RORGRPS, got.RORG)
}

// S3 — UTE teach-in acceptance, dispatched through the controller's
// handshake path: with teach_in enabled and a known own address, the
// response frame must be enqueued on the transmit queue before the
// request's own packet is handed off.
func TestDispatchUTETeachInEnqueuesResponse(t *testing.T) {
	c := newTestController(t)
	c.ownAddress.Store([4]byte{0xDE, 0xAD, 0xBE, 0xEF})

	reqData := []byte{0xD4, 0xA0, 0xFF, 0x01, 0x16, 0x05, 0x02, 0xA5, 0x01, 0x02, 0x03, 0x04, 0x00}
	reqOptional := []byte{0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00}
	frame := esp3.Build(esp3.PacketTypeRadioERP1, reqData, reqOptional)

	s := esp3.NewScanner()
	s.Feed(frame)
	p, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, esp3.KindUTETeachIn, p.Kind)

	c.dispatch(p)

	select {
	case resp := <-c.transmit.Items():
		assert.Equal(t, byte(0xD4), resp[6]) // rorg byte of data region
	default:
		t.Fatal("expected a UTE response frame on the transmit queue")
	}
}

func TestDispatchUTETeachInIgnoredWhenDisabled(t *testing.T) {
	c := newTestController(t)
	c.cfg.TeachIn = false
	c.ownAddress.Store([4]byte{0xDE, 0xAD, 0xBE, 0xEF})

	reqData := []byte{0xD4, 0xA0, 0xFF, 0x01, 0x16, 0x05, 0x02, 0xA5, 0x01, 0x02, 0x03, 0x04, 0x00}
	reqOptional := []byte{0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00}
	frame := esp3.Build(esp3.PacketTypeRadioERP1, reqData, reqOptional)
	s := esp3.NewScanner()
	s.Feed(frame)
	p, err := s.Next()
	require.NoError(t, err)

	c.dispatch(p)

	assert.Equal(t, 0, c.transmit.Len())
}

func TestEnqueueStartupProbeOrdersCommands(t *testing.T) {
	c := newTestController(t)
	c.enqueueStartupProbe()
	assert.Equal(t, startupProbe, c.cmdQueue)
	assert.Equal(t, len(startupProbe), c.transmit.Len())
}
