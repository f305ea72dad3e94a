package esp3

import "fmt"

// Packet is the tagged-union frame model: a shared header plus a Kind
// discriminant that selects which variant-specific fields are populated,
// in place of a class hierarchy per packet type.
type Packet struct {
	Type     PacketType
	Data     []byte
	Optional []byte
	Kind     Kind

	// Radio-ERP1 fields (Kind == KindRadio or KindUTETeachIn).
	RORG        RORG
	Sender      [4]byte
	Destination [4]byte
	Status      byte
	RepeaterCount uint8
	Learn       bool
	ContainsEEP bool
	RorgFunc    uint8
	RorgType    uint8
	RorgManufacturer uint16
	DBm         int

	// UTE teach-in fields (Kind == KindUTETeachIn).
	UTE UTETeachIn

	// Response fields (Kind == KindResponse).
	ReturnCode   ReturnCode
	ResponseData []byte

	// Event fields (Kind == KindEvent).
	Event     EventCode
	EventData []byte
}

// Kind discriminates the Packet variants produced at parse time.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindRadio
	KindUTETeachIn
	KindResponse
	KindEvent
)

// UTE request/response sub-codes, EnOcean_Equipment_Profiles / UTE teach-in.
const (
	UTERequestTeachIn    uint8 = 0b00
	UTERequestDelete     uint8 = 0b01
	UTERequestNotSpecific uint8 = 0b10
)

// UTE response bit pairs, written into the response telegram's request-type field.
var (
	UTEResponseNotAccepted    = [2]bool{false, false}
	UTEResponseTeachInAccepted = [2]bool{false, true}
	UTEResponseDeleteAccepted = [2]bool{true, false}
	UTEResponseEEPNotSupported = [2]bool{true, true}
)

// UTETeachIn carries the fields decoded from a D4 (UTE) radio telegram, per
// EEP's fixed 7-byte UTE payload layout (byte 1 = flags, bytes 2 = channel,
// bytes 3-4 = manufacturer id split, byte 5 = type, byte 6 = func).
type UTETeachIn struct {
	Unidirectional   bool
	ResponseExpected bool
	RequestType      uint8
	Channel          uint8
	RorgType         uint8
	RorgFunc         uint8
	RorgOfEEP        RORG
	RorgManufacturer uint16
}

// TeachIn reports whether this UTE telegram requests enrolment (as opposed
// to a delete request).
func (u UTETeachIn) TeachIn() bool { return u.RequestType != UTERequestDelete }

// Delete reports whether this UTE telegram requests un-enrolment.
func (u UTETeachIn) Delete() bool { return u.RequestType == UTERequestDelete }

// Bidirectional is the inverse of Unidirectional.
func (u UTETeachIn) Bidirectional() bool { return !u.Unidirectional }

// Payload returns the RORG-specific user-data slice of a Radio-ERP1
// packet: data[1:len-5], stripping the leading RORG byte and the trailing
// 4-byte sender + 1-byte status. Returns nil for non-radio packets or
// data too short to hold a valid radio frame.
func (p *Packet) Payload() []byte {
	if p.Kind != KindRadio && p.Kind != KindUTETeachIn {
		return nil
	}
	if len(p.Data) < 6 {
		return nil
	}
	return p.Data[1 : len(p.Data)-5]
}

func (p *Packet) String() string {
	switch p.Kind {
	case KindRadio, KindUTETeachIn:
		return fmt.Sprintf("%02X->%02X (%d dBm): rorg=%s data=% X", p.Sender, p.Destination, p.DBm, p.RORG, p.Data)
	default:
		return fmt.Sprintf("type=%s data=% X optional=% X", p.Type, p.Data, p.Optional)
	}
}
