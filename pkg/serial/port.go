//go:build linux

package serial

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// DefaultBaudRate is the rate the BLED112 enumerates with. The dongle is a
// USB CDC device and ignores the setting, but UART modules do not.
const DefaultBaudRate = 115200

// readTimeout is VTIME in deciseconds. Read wakes up at this interval to
// notice Close.
const readTimeout = 1

var baudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// Port is a raw 8N1 serial device as ReadWriteCloser.
type Port struct {
	name      string
	fd        int
	closed    chan struct{}
	closeOnce sync.Once
	rmu       sync.Mutex
	wmu       sync.Mutex
}

// Open opens the tty at name in raw mode. The RTS/CTS lines are enabled when
// flow is set.
func Open(name string, baud int, flow bool) (*Port, error) {
	speed, ok := baudRates[baud]
	if !ok {
		return nil, errors.Errorf("unsupported baud rate %d", baud)
	}
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	if err := configure(fd, speed, flow); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "configure %s", name)
	}
	// Drop whatever the device queued before we attached.
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		zap.L().Warn("serial flush failed", zap.String("port", name), zap.Error(err))
	}
	zap.L().Info("serial port opened", zap.String("port", name), zap.Int("baud", baud), zap.Bool("flow", flow))
	return &Port{name: name, fd: fd, closed: make(chan struct{})}, nil
}

func configure(fd int, speed uint32, flow bool) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD | unix.CRTSCTS
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	if flow {
		t.Cflag |= unix.CRTSCTS
	}
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = readTimeout
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return err
	}
	return unix.SetNonblock(fd, false)
}

// Read blocks until at least one byte arrives or the port is closed.
func (p *Port) Read(b []byte) (int, error) {
	for {
		select {
		case <-p.closed:
			return 0, io.EOF
		default:
		}
		p.rmu.Lock()
		n, err := unix.Read(p.fd, b)
		p.rmu.Unlock()
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", p.name)
		}
		if n > 0 {
			return n, nil
		}
	}
}

func (p *Port) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	written := 0
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, errors.Wrapf(err, "write %s", p.name)
		}
		written += n
	}
	return written, nil
}

// Close waits for pending output to drain and releases the device. A Read in
// progress returns io.EOF within one read timeout.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		p.wmu.Lock()
		defer p.wmu.Unlock()
		p.rmu.Lock()
		defer p.rmu.Unlock()
		// TCSBRK with a non-zero argument is tcdrain.
		err = multierr.Append(
			unix.IoctlSetInt(p.fd, unix.TCSBRK, 1),
			unix.Close(p.fd),
		)
		zap.L().Info("serial port closed", zap.String("port", p.name), zap.Error(err))
	})
	return err
}

var _ io.ReadWriteCloser = (*Port)(nil)
