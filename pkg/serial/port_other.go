//go:build !linux

package serial

import (
	"io"

	"github.com/pkg/errors"
)

const DefaultBaudRate = 115200

// Port is only implemented on Linux.
type Port struct{ io.ReadWriteCloser }

func Open(name string, baud int, flow bool) (*Port, error) {
	return nil, errors.Errorf("serial: %s: not supported on this platform", name)
}
