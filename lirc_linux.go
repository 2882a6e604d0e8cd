//go:build linux

package irremote

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LIRCTransmitter sends scancodes through a kernel LIRC device, leaving the
// RC5/RC6 encoding to the kernel's IR encoders.
type LIRCTransmitter struct {
	path string
	file *os.File
}

// NewLIRCTransmitter opens path (e.g. /dev/lirc0) and switches it to scancode
// send mode.
func NewLIRCTransmitter(path string) (*LIRCTransmitter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open LIRC device %v: %v", path, err)
	}
	if err := unix.IoctlSetPointerInt(int(f.Fd()), lircSetSendMode, lircModeScancode); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not switch %v to scancode mode: %v", path, err)
	}
	return &LIRCTransmitter{path: path, file: f}, nil
}

// Transmit writes one scancode per frame.
func (t *LIRCTransmitter) Transmit(cmd Command) error {
	sc, err := encodeLIRCScancode(cmd)
	if err != nil {
		return err
	}
	for i := 0; i <= cmd.Repeats; i++ {
		if _, err := t.file.Write(sc); err != nil {
			return fmt.Errorf("error writing to %v: %v", t.path, err)
		}
	}
	return nil
}

// Close releases the device.
func (t *LIRCTransmitter) Close() error {
	return t.file.Close()
}
