package radio

import (
	"net"
	"time"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
)

// TCPPort dials a "host:port" endpoint exposing an EnOcean adapter over
// the network (e.g. a serial-to-network bridge). net.Conn already
// satisfies both Read/Write/Close and SetReadDeadline.
type TCPPort struct {
	conn net.Conn
}

// DialTCP connects to addr with a bounded dial timeout.
func DialTCP(addr string) (*TCPPort, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransportFailure, "dial tcp transport "+addr)
	}
	return &TCPPort{conn: conn}, nil
}

func (t *TCPPort) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *TCPPort) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *TCPPort) Close() error                { return t.conn.Close() }

func (t *TCPPort) SetReadDeadline(dl time.Time) error {
	return t.conn.SetReadDeadline(dl)
}
