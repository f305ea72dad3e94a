package esp3

import "github.com/dduransseau/enocean2mqtt/internal/apperrors"

// BroadcastAddress is the reserved all-0xFF destination meaning "every
// device on air".
var BroadcastAddress = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}

// learnBitOffset is the documentation-numbered bit position (within the
// relevant payload byte) carrying BS1/BS4's "data, not teach-in" flag.
const learnBitOffset = 4

// BuildRadioTelegram assembles the data/optional byte sequences for an
// outbound Radio-ERP1 telegram. Only RPS, BS1, BS4, VLD, and MSC are
// supported RORGs for telegram construction (UTE responses go through
// BuildUTEResponse instead).
//
// payload must already be sized/encoded by the EEP profile engine (1 byte
// for RPS/BS1, 4 bytes for BS4, the profile's ceil(bits/8) for VLD/MSC).
// For BS1/BS4, a non-learn telegram has its learn-bit payload position set
// to 1 ("data", not teach-in); a learn telegram leaves it at 0. status is
// the profile-encoded status byte (FieldStatus values such as RPS T21/NU);
// it is written as the telegram's final data byte.
func BuildRadioTelegram(rorg RORG, payload []byte, sender, destination [4]byte, learn bool, status byte) (data, optional []byte, err error) {
	switch rorg {
	case RORGRPS, RORGBS1:
		if len(payload) != 1 {
			return nil, nil, apperrors.New(apperrors.CodeOutOfRangeRaw, "RPS/BS1 payload must be 1 byte")
		}
	case RORGBS4:
		if len(payload) != 4 {
			return nil, nil, apperrors.New(apperrors.CodeOutOfRangeRaw, "BS4 payload must be 4 bytes")
		}
	case RORGVld, RORGMsc:
		// Variable length, profile-dependent; accepted as-is.
	default:
		return nil, nil, apperrors.New(apperrors.CodeUnsupportedRORG, "create_telegram does not support RORG "+rorg.String())
	}

	body := append([]byte(nil), payload...)
	if rorg == RORGBS1 && !learn {
		body[0], err = SetBitsToByte(body[0], learnBitOffset, 1, 1)
		if err != nil {
			return nil, nil, err
		}
	}
	if rorg == RORGBS4 && !learn {
		body[3], err = SetBitsToByte(body[3], learnBitOffset, 1, 1)
		if err != nil {
			return nil, nil, err
		}
	}

	data = make([]byte, 0, 1+len(body)+4+1)
	data = append(data, byte(rorg))
	data = append(data, body...)
	data = append(data, sender[:]...)
	data = append(data, status)

	optional = []byte{0x03, destination[0], destination[1], destination[2], destination[3], 0xFF, 0x00}
	return data, optional, nil
}
