package radio

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSerialRejectsUnsupportedBaud(t *testing.T) {
	_, err := OpenSerial("/dev/null", 4800)
	require.Error(t, err)
}

func TestDialTCPRoundTrips(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := DialTCP(ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted connection")
	}
	defer server.Close()

	_, err = server.Write([]byte("ESP3"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ESP3", string(buf[:n]))

	n, err = client.Write([]byte("ACK"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDialTCPFailsOnUnreachableAddress(t *testing.T) {
	_, err := DialTCP("127.0.0.1:1")
	require.Error(t, err)
}
