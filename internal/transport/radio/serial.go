// Package radio provides the two physical links a controller can attach
// over: a local serial port wired to an EnOcean USB/TCM gateway module, or
// a TCP socket to one exposed over the network (e.g. ser2net). Both
// satisfy controller.Transport.
package radio

import (
	"time"

	serial "github.com/daedaluz/goserial"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
)

// baudFlags maps the handful of bit rates EnOcean adapters actually use
// to the termios CFlag constant goserial expects.
var baudFlags = map[int]serial.CFlag{
	9600:   serial.B9600,
	19200:  serial.B19200,
	38400:  serial.B38400,
	57600:  serial.B57600,
	115200: serial.B115200,
}

// SerialPort wraps a goserial.Port behind the controller's Transport
// interface, configuring it for raw 8N1 at the requested baud rate.
type SerialPort struct {
	port *serial.Port
}

// OpenSerial opens device at baud and puts it into raw mode.
func OpenSerial(device string, baud int) (*SerialPort, error) {
	flag, ok := baudFlags[baud]
	if !ok {
		return nil, apperrors.New(apperrors.CodeInvalidConfig, "unsupported baud rate")
	}

	port, err := serial.Open(device, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransportFailure, "open serial device "+device)
	}

	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeTransportFailure, "configure serial device "+device)
	}
	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeTransportFailure, "read serial attrs "+device)
	}
	attrs.SetSpeed(flag)
	attrs.Cflag |= serial.CREAD | serial.CLOCAL
	attrs.Cflag &^= serial.CSTOPB | serial.PARENB
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeTransportFailure, "set serial attrs "+device)
	}

	return &SerialPort{port: port}, nil
}

func (s *SerialPort) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *SerialPort) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *SerialPort) Close() error                { return s.port.Close() }

// SetReadDeadline satisfies the controller's timedReader interface by
// converting the absolute deadline into the relative timeout the
// underlying port's ioctl layer expects.
func (s *SerialPort) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		s.port.SetReadTimeout(-1)
		return nil
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	s.port.SetReadTimeout(d)
	return nil
}
