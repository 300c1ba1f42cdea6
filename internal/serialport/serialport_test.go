package serialport

import (
	"testing"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/require"

	"github.com/kentavv/ms670x/internal/stream"
)

func TestOpenRequiresDevice(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(Config{Device: "/dev/ms670x-does-not-exist"})
	require.Error(t, err)
}

func TestTimeoutErrorIsStreamTimeout(t *testing.T) {
	err := timeoutError{serial.ErrTimeout}
	require.True(t, stream.IsTimeout(err))
	require.ErrorIs(t, err, serial.ErrTimeout)
}

func TestCloseNil(t *testing.T) {
	var p *Port
	require.NoError(t, p.Close())
}
