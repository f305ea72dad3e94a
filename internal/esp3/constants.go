package esp3

// PacketType identifies the ESP3 packet_type field (offset 4 of the frame).
// EnOceanSerialProtocol3.pdf / 12.
type PacketType uint8

const (
	PacketTypeReserved       PacketType = 0x00
	PacketTypeRadioERP1      PacketType = 0x01
	PacketTypeResponse       PacketType = 0x02
	PacketTypeRadioSubTel    PacketType = 0x03
	PacketTypeEvent          PacketType = 0x04
	PacketTypeCommonCommand  PacketType = 0x05
	PacketTypeSmartAckCmd    PacketType = 0x06
	PacketTypeRemoteManCmd   PacketType = 0x07
	PacketTypeRadioMessage   PacketType = 0x09
	PacketTypeRadioERP2      PacketType = 0x0A
	PacketTypeRadio8021504   PacketType = 0x10
	PacketTypeCommand24      PacketType = 0x11
)

func (p PacketType) String() string {
	switch p {
	case PacketTypeReserved:
		return "RESERVED"
	case PacketTypeRadioERP1:
		return "RADIO_ERP1"
	case PacketTypeResponse:
		return "RESPONSE"
	case PacketTypeRadioSubTel:
		return "RADIO_SUB_TEL"
	case PacketTypeEvent:
		return "EVENT"
	case PacketTypeCommonCommand:
		return "COMMON_COMMAND"
	case PacketTypeSmartAckCmd:
		return "SMART_ACK_COMMAND"
	case PacketTypeRemoteManCmd:
		return "REMOTE_MAN_COMMAND"
	case PacketTypeRadioMessage:
		return "RADIO_MESSAGE"
	case PacketTypeRadioERP2:
		return "RADIO_ERP2"
	case PacketTypeRadio8021504:
		return "RADIO_802_15_4"
	case PacketTypeCommand24:
		return "COMMAND_2_4"
	default:
		return "UNKNOWN"
	}
}

// EventCode identifies the payload of an EVENT packet. EnOceanSerialProtocol3.pdf / 20.
type EventCode uint8

const (
	EventSaReclaimNotSuccessful EventCode = 0x01
	EventSaConfirmLearn         EventCode = 0x02
	EventSaLearnAck             EventCode = 0x03
	EventCoReady                EventCode = 0x04
	EventCoEventSecureDevices   EventCode = 0x05
	EventCoDutyCycleLimit       EventCode = 0x06
	EventCoTransmitFailed       EventCode = 0x07
	EventCoTxDone               EventCode = 0x08
	EventCoLrnModeDisabled      EventCode = 0x09
)

// CommandCode identifies the first data byte of a COMMON_COMMAND packet.
type CommandCode uint8

const (
	CoWrSleep             CommandCode = 0x01
	CoWrReset             CommandCode = 0x02
	CoRdVersion           CommandCode = 0x03
	CoRdSysLog            CommandCode = 0x04
	CoWrSysLog            CommandCode = 0x05
	CoWrBist              CommandCode = 0x06
	CoWrIDBase            CommandCode = 0x07
	CoRdIDBase            CommandCode = 0x08
	CoWrRepeater          CommandCode = 0x09
	CoRdRepeater          CommandCode = 0x0A
	CoWrFilterAdd         CommandCode = 0x0B
	CoWrFilterDel         CommandCode = 0x0C
	CoWrFilterDelAll      CommandCode = 0x0D
	CoWrFilterEnable      CommandCode = 0x0E
	CoRdFilter            CommandCode = 0x0F
	CoWrWaitMaturity      CommandCode = 0x10
	CoWrSubtel            CommandCode = 0x11
	CoWrMem               CommandCode = 0x12
	CoRdMem               CommandCode = 0x13
	CoRdMemAddress        CommandCode = 0x14
	CoWrLearnMode         CommandCode = 0x17
	CoRdLearnMode         CommandCode = 0x18
	CoWrMode              CommandCode = 0x1C
	CoSetBaudrate         CommandCode = 0x24
	CoGetFrequencyInfo    CommandCode = 0x25
	CoGetStepCode         CommandCode = 0x27
	CoSetNoiseThreshold   CommandCode = 0x32
	CoGetNoiseThreshold   CommandCode = 0x33
)

// ReturnCode is the first data byte of a RESPONSE packet.
// EnOceanSerialProtocol3.pdf / 18.
type ReturnCode uint8

const (
	RetOK              ReturnCode = 0x00
	RetError           ReturnCode = 0x01
	RetNotSupported    ReturnCode = 0x02
	RetWrongParam      ReturnCode = 0x03
	RetOperationDenied ReturnCode = 0x04
	RetLockSet         ReturnCode = 0x05
	RetBufferTooSmall  ReturnCode = 0x06
	RetNoFreeBuffer    ReturnCode = 0x07
)

// RORG is the radio telegram family, the first data byte of a Radio-ERP1 packet.
// EnOcean_Equipment_Profiles_EEP_V2.61_public.pdf / 8.
type RORG uint8

const (
	RORGUndefined RORG = 0x00
	RORGRPS       RORG = 0xF6
	RORGBS4       RORG = 0xA5
	RORGADT       RORG = 0xA6
	RORGSMRec     RORG = 0xA7
	RORGSysEx     RORG = 0xC5
	RORGSmLrnReq  RORG = 0xC6
	RORGSmLrnAns  RORG = 0xC7
	RORGSec       RORG = 0x30
	RORGSecEncaps RORG = 0x31
	RORGDecrypted RORG = 0x32
	RORGSecCdm    RORG = 0x33
	RORGSecTi     RORG = 0x35
	RORGSignal    RORG = 0xD0
	RORGMsc       RORG = 0xD1
	RORGVld       RORG = 0xD2
	RORGUte       RORG = 0xD4
	RORGBS1       RORG = 0xD5
)

func (r RORG) String() string {
	switch r {
	case RORGRPS:
		return "RPS"
	case RORGBS4:
		return "BS4"
	case RORGADT:
		return "ADT"
	case RORGSMRec:
		return "SM_REC"
	case RORGSysEx:
		return "SYS_EX"
	case RORGSmLrnReq:
		return "SM_LRN_REQ"
	case RORGSmLrnAns:
		return "SM_LRN_ANS"
	case RORGSec:
		return "SEC"
	case RORGSecEncaps:
		return "SEC_ENCAPS"
	case RORGDecrypted:
		return "DECRYPTED"
	case RORGSecCdm:
		return "SEC_CDM"
	case RORGSecTi:
		return "SEC_TI"
	case RORGSignal:
		return "SIGNAL"
	case RORGMsc:
		return "MSC"
	case RORGVld:
		return "VLD"
	case RORGUte:
		return "UTE"
	case RORGBS1:
		return "BS1"
	default:
		return "UNDEFINED"
	}
}

// DataFieldType identifies an EEP field's shape in the XML grammar.
type DataFieldType uint8

const (
	DataFieldStatus DataFieldType = 1
	DataFieldValue  DataFieldType = 2
	DataFieldEnum   DataFieldType = 3
)

// FrequencyLookup maps CO_GET_FREQUENCY_INFO's first response byte to the
// adapter's RF band. EnOceanSerialProtocol3.pdf / 24.
var FrequencyLookup = map[uint8]string{
	0x00: "315 MHz",
	0x01: "868.3 MHz",
	0x02: "902.875 MHz",
	0x03: "925 MHz",
	0x04: "928 MHz",
	0x20: "2.4 GHz",
	0x30: "243 MHz",
}

// ProtocolLookup maps CO_GET_FREQUENCY_INFO's second response byte to the
// radio protocol in use.
var ProtocolLookup = map[uint8]string{
	0x00: "ERP1",
	0x01: "ERP2",
	0x10: "802.15.4",
	0x20: "Long Range",
}

// RepeaterLookup maps CO_RD_REPEATER's enable byte to a human label.
var RepeaterLookup = map[uint8]string{
	0x00: "off",
	0x01: "level 1",
	0x02: "level 2",
}

// SyncByte starts every ESP3 frame.
const SyncByte byte = 0x55

// HeaderSize is the fixed 5-byte [data_len_hi, data_len_lo, opt_len, type, hcrc]
// region following the sync byte.
const HeaderSize = 5
