package esp3

// UTEResponseCode is the 2-bit acceptance code carried in bits 4-5 of a
// UTE teach-in response's control byte.
type UTEResponseCode uint8

const (
	UTEResponseCodeNotAccepted     UTEResponseCode = 0
	UTEResponseCodeTeachInAccepted UTEResponseCode = 1
	UTEResponseCodeDeleteAccepted  UTEResponseCode = 2
	UTEResponseCodeEEPNotSupported UTEResponseCode = 3
)

// BuildUTEResponse constructs the data/optional payload for a UTE teach-in
// response, given the originating request packet, the controller's own
// sender address, and the acceptance code. The caller passes the result to
// Build(PacketTypeRadioERP1, data, optional) to produce wire bytes.
//
// Bytes 2..7 (channel, rorg type/func, announced EEP) are copied verbatim
// from the request; bytes 8..11 carry the controller's address; the
// control byte always advertises bidirectional support and the command
// identifier bit, per EEP's UTE teach-in response grammar.
func BuildUTEResponse(request *Packet, controllerSender [4]byte, response UTEResponseCode) (data, optional []byte) {
	control := byte(0x81) | byte(response)<<4

	data = make([]byte, 0, 13)
	data = append(data, byte(request.RORG))
	data = append(data, control)
	if len(request.Data) >= 8 {
		data = append(data, request.Data[2:8]...)
	}
	data = append(data, controllerSender[:]...)
	data = append(data, 0)

	optional = make([]byte, 0, 7)
	optional = append(optional, 0x03)
	optional = append(optional, request.Sender[:]...)
	optional = append(optional, 0xFF, 0x00)
	return data, optional
}
