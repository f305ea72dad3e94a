package controller

import (
	"fmt"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// AdapterIdentity is the controller's snapshot of the attached radio
// module, populated as the startup probe's Response packets arrive.
type AdapterIdentity struct {
	ChipID         uint32
	AppVersion     [4]byte
	APIVersion     [4]byte
	AppDescription string
	BaseID         [4]byte
	Frequency      string
	Protocol       string
	RepeaterMode   string
	RepeaterLevel  uint8
	NoiseThreshold uint8
}

// startupProbe is the fixed order of common commands issued once at
// controller start. The command code is also pushed onto the
// pending-command FIFO so the matching Response can be routed back.
var startupProbe = []esp3.CommandCode{
	esp3.CoRdVersion,
	esp3.CoGetFrequencyInfo,
	esp3.CoRdIDBase,
	esp3.CoGetNoiseThreshold,
	esp3.CoRdRepeater,
}

// applyResponse updates id from a Response packet correlated to cmd, the
// oldest entry popped off the pending-command FIFO.
func (id *AdapterIdentity) applyResponse(cmd esp3.CommandCode, p *esp3.Packet) error {
	data := p.ResponseData
	switch cmd {
	case esp3.CoRdVersion:
		return id.applyVersion(data)
	case esp3.CoRdIDBase:
		return id.applyIDBase(data)
	case esp3.CoGetFrequencyInfo:
		return id.applyFrequencyInfo(data)
	case esp3.CoGetNoiseThreshold:
		return id.applyNoiseThreshold(data)
	case esp3.CoRdRepeater:
		return id.applyRepeater(data)
	default:
		return nil
	}
}

func (id *AdapterIdentity) applyVersion(data []byte) error {
	if len(data) < 24 {
		return fmt.Errorf("controller: CO_RD_VERSION response too short (%d bytes)", len(data))
	}
	copy(id.AppVersion[:], data[0:4])
	copy(id.APIVersion[:], data[4:8])
	id.ChipID = uint32(data[8])<<24 | uint32(data[9])<<16 | uint32(data[10])<<8 | uint32(data[11])
	id.AppDescription = trimNulls(data[16:24])
	return nil
}

func (id *AdapterIdentity) applyIDBase(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("controller: CO_RD_IDBASE response too short (%d bytes)", len(data))
	}
	copy(id.BaseID[:], data[0:4])
	return nil
}

func (id *AdapterIdentity) applyFrequencyInfo(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("controller: CO_GET_FREQUENCY_INFO response too short (%d bytes)", len(data))
	}
	id.Frequency = lookupOr(esp3.FrequencyLookup, data[0], "unknown")
	id.Protocol = lookupOr(esp3.ProtocolLookup, data[1], "unknown")
	return nil
}

func (id *AdapterIdentity) applyNoiseThreshold(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("controller: CO_GET_NOISETHRESHOLD response too short (%d bytes)", len(data))
	}
	id.NoiseThreshold = data[0]
	return nil
}

func (id *AdapterIdentity) applyRepeater(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("controller: CO_RD_REPEATER response too short (%d bytes)", len(data))
	}
	id.RepeaterMode = lookupOr(esp3.RepeaterLookup, data[0], "unknown")
	id.RepeaterLevel = data[1]
	return nil
}

func lookupOr(table map[uint8]string, key uint8, fallback string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}

func trimNulls(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// commonCommandPacket builds the COMMON_COMMAND ESP3 frame whose data is
// [commandCode, ...params] (most probe commands take no parameters).
func commonCommandPacket(cmd esp3.CommandCode, params ...byte) []byte {
	data := append([]byte{byte(cmd)}, params...)
	return esp3.Build(esp3.PacketTypeCommonCommand, data, nil)
}
