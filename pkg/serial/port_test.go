//go:build linux

package serial

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openPTY returns the master side of a pseudo terminal and the path of its
// slave.
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("no pty support: %v", err)
	}
	t.Cleanup(func() { master.Close() })
	fd := int(master.Fd())
	require.NoError(t, unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0))
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	require.NoError(t, err)
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestPortReadWrite(t *testing.T) {
	master, name := openPTY(t)

	p, err := Open(name, DefaultBaudRate, false)
	require.NoError(t, err)
	defer p.Close()

	frame := []byte{0x00, 0x00, 0x00, 0x01}
	n, err := p.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)

	got := make([]byte, len(frame))
	_, err = io.ReadFull(master, got)
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	// Raw mode: no newline translation.
	_, err = master.Write([]byte{0x80, 0x0A, 0x0D})
	require.NoError(t, err)
	got = make([]byte, 3)
	_, err = io.ReadFull(p, got)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x0A, 0x0D}, got)
}

func TestPortCloseUnblocksRead(t *testing.T) {
	_, name := openPTY(t)

	p, err := Open(name, DefaultBaudRate, false)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.Read(make([]byte, 16))
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		require.FailNow(t, "read did not return")
	}

	_, err = p.Write([]byte{1})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.NoError(t, p.Close())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("/dev/null", 12345, false)
	assert.ErrorContains(t, err, "unsupported baud rate")

	_, err = Open("/dev/does-not-exist", DefaultBaudRate, false)
	assert.Error(t, err)
}
