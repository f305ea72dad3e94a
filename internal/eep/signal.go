package eep

import (
	"fmt"
	"time"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// Signal message ids (RORG 0xD0, first payload byte).
const (
	SignalEnergyStatus     = 0x06
	SignalRevision         = 0x07
	SignalHeartbeat        = 0x08
	SignalRXChannelQuality = 0x0A
	SignalBackupBattery    = 0x10
	SignalProductID        = 0x12
	SignalDateTime         = 0x13
)

// DecodeSignal decodes a RORG 0xD0 telegram's payload (payload[0] is the
// message id) into its named fields. Unknown message ids fail with
// apperrors.CodeSignalNotSupported.
func DecodeSignal(payload []byte) (map[string]interface{}, error) {
	if len(payload) == 0 {
		return nil, apperrors.New(apperrors.CodeSignalNotSupported, "empty signal payload")
	}
	mid := payload[0]
	switch mid {
	case SignalEnergyStatus:
		return map[string]interface{}{"energy": decodePercentOrLastMessage(payload[1])}, nil
	case SignalRevision:
		return decodeRevision(payload)
	case SignalHeartbeat:
		return map[string]interface{}{}, nil
	case SignalRXChannelQuality:
		return decodeRXChannelQuality(payload)
	case SignalBackupBattery:
		return map[string]interface{}{"energy": decodeBackupBatteryEnergy(payload[1])}, nil
	case SignalProductID:
		return map[string]interface{}{"product_id": esp3.GetBits(payload, 8, 48)}, nil
	case SignalDateTime:
		return decodeDateTime(payload)
	default:
		return nil, apperrors.New(apperrors.CodeSignalNotSupported, fmt.Sprintf("signal MID 0x%02X not supported", mid))
	}
}

func decodePercentOrLastMessage(b byte) string {
	switch {
	case b == 0:
		return "last_message"
	case b > 0 && b < 101:
		return fmt.Sprintf("%d%%", b)
	default:
		return "reserved"
	}
}

func decodeBackupBatteryEnergy(b byte) string {
	switch {
	case b < 101:
		return fmt.Sprintf("%d%%", b)
	case b == 255:
		return "no backup battery"
	default:
		return "reserved"
	}
}

func decodeRevision(payload []byte) (map[string]interface{}, error) {
	if len(payload) < 9 {
		return nil, apperrors.New(apperrors.CodeSignalNotSupported, "revision signal payload too short")
	}
	return map[string]interface{}{
		"sw_version": dottedQuad(payload[1:5]),
		"hw_version": dottedQuad(payload[5:9]),
	}, nil
}

func dottedQuad(b []byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}

func decodeRXChannelQuality(payload []byte) (map[string]interface{}, error) {
	if len(payload) < 8 {
		return nil, apperrors.New(apperrors.CodeSignalNotSupported, "RX-channel quality payload too short")
	}
	return map[string]interface{}{
		"id":                 esp3.GetBits(payload, 8, 32),
		"dbm_worst":          payload[5],
		"dbm_best":           payload[6],
		"subtelegram_count":  esp3.GetBits(payload, 56, 4),
		"max_repeater_level": esp3.GetBits(payload, 60, 4),
	}, nil
}

func decodeDateTime(payload []byte) (map[string]interface{}, error) {
	if len(payload) < 7 {
		return nil, apperrors.New(apperrors.CodeSignalNotSupported, "date/time payload too short")
	}
	year := int(payload[1]) + 2000
	month := int(payload[2])
	day := int(payload[3])
	daylight := esp3.GetBitsFromByte(payload[4], 2, 1)
	hour := int(esp3.GetBits(payload, 34, 6))
	minute := int(payload[5])
	second := int(payload[6])
	dt := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return map[string]interface{}{
		"datetime":        dt,
		"daylight_saving": daylight != 0,
	}, nil
}
