//go:build !linux

package irremote

import "errors"

// LIRCTransmitter is only available on Linux.
type LIRCTransmitter struct{}

// NewLIRCTransmitter always fails on this platform.
func NewLIRCTransmitter(path string) (*LIRCTransmitter, error) {
	return nil, errors.New("the LIRC transmitter is only supported on linux")
}

// Transmit always fails on this platform.
func (t *LIRCTransmitter) Transmit(cmd Command) error {
	return errors.New("the LIRC transmitter is only supported on linux")
}

// Close is a no-op.
func (t *LIRCTransmitter) Close() error {
	return nil
}
