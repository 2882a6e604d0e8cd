package irremote

import (
	"encoding/json"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// serialFrame is the line written to a microcontroller running an IR
// sender sketch. One JSON object per line.
type serialFrame struct {
	Protocol string `json:"protocol"`
	Address  int    `json:"address"`
	Command  int    `json:"command"`
	Repeats  int    `json:"repeats"`
}

// SerialTransmitter forwards commands over a serial line to a bridge
// microcontroller that owns the IR LED.
type SerialTransmitter struct {
	name string
	port io.WriteCloser
}

// NewSerialTransmitter opens the serial port name at the given baud rate.
func NewSerialTransmitter(name string, baud int) (*SerialTransmitter, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %v: %v", name, err)
	}
	return &SerialTransmitter{name: name, port: p}, nil
}

// Transmit writes one frame for cmd.
func (t *SerialTransmitter) Transmit(cmd Command) error {
	line, err := encodeSerialFrame(cmd)
	if err != nil {
		return err
	}
	if _, err := t.port.Write(line); err != nil {
		return fmt.Errorf("error writing to serial port %v: %v", t.name, err)
	}
	return nil
}

// Close closes the port.
func (t *SerialTransmitter) Close() error {
	return t.port.Close()
}

func encodeSerialFrame(cmd Command) ([]byte, error) {
	var address, function int
	switch cmd.Protocol {
	case ProtocolRC5:
		address, function = rc5Fields(cmd)
	case ProtocolRC6:
		address, function = rc6Fields(cmd)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, cmd.Protocol)
	}
	b, err := json.Marshal(serialFrame{
		Protocol: cmd.Protocol.String(),
		Address:  address,
		Command:  function,
		Repeats:  cmd.Repeats,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding serial frame: %v", err)
	}
	return append(b, '\n'), nil
}
