package esp3

import (
	"errors"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
)

// ErrIncomplete signals that the scanner's buffer does not yet hold a
// complete frame. It is not a failure: callers should wait for more bytes.
var ErrIncomplete = errors.New("esp3: incomplete frame")

// Scanner implements the WAIT_SYNC / READ_HEADER / READ_BODY state machine
// over a rolling byte buffer fed by the transport worker.
type Scanner struct {
	buf     []byte
	syncIdx int // resume position: index of the sync byte still being waited on
}

// NewScanner returns an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Feed appends newly read transport bytes to the scanner's buffer.
func (s *Scanner) Feed(data []byte) {
	s.buf = append(s.buf, data...)
}

// Buffered reports how many bytes remain unconsumed.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Next attempts to parse one frame out of the buffer. It returns
// ErrIncomplete if more bytes are needed, an *apperrors.AppError with
// CodeCrcMismatch on a checksum failure (a header mismatch advances past
// the bad sync byte; a body mismatch drops the whole frame), or the
// decoded packet on success.
func (s *Scanner) Next() (*Packet, error) {
	for {
		idx := -1
		for i := s.syncIdx; i < len(s.buf); i++ {
			if s.buf[i] == SyncByte {
				idx = i
				break
			}
		}
		if idx == -1 {
			// No sync byte at all: nothing buffered can start a frame, so
			// drop it all before the next fill.
			s.buf = nil
			s.syncIdx = 0
			return nil, ErrIncomplete
		}
		if idx > 0 {
			s.buf = s.buf[idx:]
		}
		s.syncIdx = 0

		if len(s.buf) < 1+HeaderSize {
			s.syncIdx = 0
			return nil, ErrIncomplete
		}

		dataLen := int(s.buf[1])<<8 | int(s.buf[2])
		optLen := int(s.buf[3])
		packetType := PacketType(s.buf[4])
		headerCRC := s.buf[5]

		if CRC8(s.buf[1:5]) != headerCRC {
			s.buf = s.buf[1:]
			return nil, apperrors.New(apperrors.CodeCrcMismatch, "header CRC8 mismatch")
		}

		dataEnd := 6 + dataLen
		optEnd := dataEnd + optLen
		msgLen := optEnd + 1

		if len(s.buf) < msgLen {
			// Remember this sync position so the next Feed doesn't rescan it.
			s.syncIdx = 0
			return nil, ErrIncomplete
		}

		data := append([]byte(nil), s.buf[6:dataEnd]...)
		optional := append([]byte(nil), s.buf[dataEnd:optEnd]...)
		bodyCRC := s.buf[optEnd]

		body := make([]byte, 0, dataLen+optLen)
		body = append(body, data...)
		body = append(body, optional...)

		if CRC8(body) != bodyCRC {
			s.buf = s.buf[msgLen:]
			return nil, apperrors.New(apperrors.CodeCrcMismatch, "data CRC8 mismatch")
		}

		s.buf = s.buf[msgLen:]
		return classify(packetType, data, optional), nil
	}
}

// classify builds the tagged variant for a decoded frame, mirroring the
// reference's subclass dispatch on packet_type and data[0].
func classify(packetType PacketType, data, optional []byte) *Packet {
	switch packetType {
	case PacketTypeRadioERP1:
		if len(data) > 0 && RORG(data[0]) == RORGUte {
			return parseUTETeachIn(data, optional)
		}
		return parseRadio(packetType, data, optional)
	case PacketTypeResponse:
		p := &Packet{Type: packetType, Data: data, Optional: optional, Kind: KindResponse}
		if len(data) > 0 {
			p.ReturnCode = ReturnCode(data[0])
			p.ResponseData = data[1:]
		}
		return p
	case PacketTypeEvent:
		p := &Packet{Type: packetType, Data: data, Optional: optional, Kind: KindEvent}
		if len(data) > 0 {
			p.Event = EventCode(data[0])
			p.EventData = data[1:]
		}
		return p
	default:
		return &Packet{Type: packetType, Data: data, Optional: optional, Kind: KindGeneric}
	}
}

func parseRadio(packetType PacketType, data, optional []byte) *Packet {
	p := &Packet{Type: packetType, Data: data, Optional: optional, Kind: KindRadio, Learn: true}

	if len(optional) >= 6 {
		copy(p.Destination[:], optional[1:5])
		p.DBm = -int(optional[5])
	}
	if len(data) >= 5 {
		copy(p.Sender[:], data[len(data)-5:len(data)-1])
	}
	if len(data) > 0 {
		p.RORG = RORG(data[0])
	}

	switch p.RORG {
	case RORGRPS, RORGBS1, RORGBS4:
		if len(data) > 0 {
			p.Status = data[len(data)-1]
			p.RepeaterCount = GetBitsFromByte(p.Status, 4, 4)
		}
	case RORGVld:
		if len(optional) > 0 {
			p.Status = optional[len(optional)-1]
		}
	}

	switch p.RORG {
	case RORGBS1:
		if len(data) > 1 {
			p.Learn = GetBitsFromByte(data[1], 4, 1) == 0
		}
	case RORGBS4:
		if len(data) > 4 {
			p.Learn = GetBitsFromByte(data[4], 4, 1) == 0
			if p.Learn {
				p.ContainsEEP = GetBitsFromByte(data[4], 0, 1) == 1
				if p.ContainsEEP {
					p.RorgFunc = uint8(GetBits(data, 8, 6))
					p.RorgType = uint8(GetBits(data, 14, 7))
					p.RorgManufacturer = uint16(GetBits(data, 21, 11))
				}
			}
		}
	case RORGVld, RORGRPS:
		p.Learn = false
	}

	return p
}

func parseUTETeachIn(data, optional []byte) *Packet {
	p := parseRadio(PacketTypeRadioERP1, data, optional)
	p.Kind = KindUTETeachIn

	if len(data) >= 8 {
		flags := data[1]
		p.UTE.Unidirectional = GetBitsFromByte(flags, 0, 1) == 0
		p.UTE.ResponseExpected = GetBitsFromByte(flags, 1, 1) == 0
		p.UTE.RequestType = GetBitsFromByte(flags, 2, 2)
		p.UTE.Channel = data[2]
		p.UTE.RorgType = data[5]
		p.UTE.RorgFunc = data[6]
		p.UTE.RorgOfEEP = RORG(data[7])
		// Manufacturer ID crosses a byte boundary in the fixed UTE layout:
		// 3 high bits then 8 low bits, non-contiguous in absolute bit terms.
		high := GetBits(data, 37, 3)
		low := GetBits(data, 24, 8)
		p.UTE.RorgManufacturer = uint16(high<<8 | low)
	}
	if p.UTE.TeachIn() {
		p.Learn = true
	}
	return p
}

// Build serialises a packetType frame carrying data and optional onto the
// wire, computing both CRC-8 checksums.
func Build(packetType PacketType, data, optional []byte) []byte {
	dataLen := len(data)
	optLen := len(optional)

	frame := make([]byte, 0, 7+dataLen+optLen)
	frame = append(frame, SyncByte)
	frame = append(frame, byte(dataLen>>8), byte(dataLen&0xFF))
	frame = append(frame, byte(optLen))
	frame = append(frame, byte(packetType))
	frame = append(frame, CRC8(frame[1:5]))
	frame = append(frame, data...)
	frame = append(frame, optional...)
	frame = append(frame, CRC8(frame[6:6+dataLen+optLen]))
	return frame
}
