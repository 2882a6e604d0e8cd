package irremote

import (
	"encoding/binary"
	"fmt"
)

// Values from linux/lirc.h.
const (
	lircSetSendMode  = 0x40046911 // _IOW('i', 0x11, __u32)
	lircModeScancode = 0x00000008

	rcProtoRC5  = 2
	rcProtoRC60 = 15

	lircScancodeSize = 24
)

// rc5Fields masks a command to the widths RC5 can carry: 5 address bits and
// 7 command bits (the 7th bit goes out as the inverted field bit).
func rc5Fields(cmd Command) (address, function int) {
	return cmd.Address & 0x1f, cmd.Function & 0x7f
}

// rc6Fields masks a command to RC6 mode 0 widths.
func rc6Fields(cmd Command) (address, function int) {
	return cmd.Address & 0xff, cmd.Function & 0xff
}

// encodeLIRCScancode builds a struct lirc_scancode for cmd.
func encodeLIRCScancode(cmd Command) ([]byte, error) {
	var proto uint16
	var address, function int
	switch cmd.Protocol {
	case ProtocolRC5:
		proto = rcProtoRC5
		address, function = rc5Fields(cmd)
	case ProtocolRC6:
		proto = rcProtoRC60
		address, function = rc6Fields(cmd)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, cmd.Protocol)
	}

	b := make([]byte, lircScancodeSize)
	// timestamp (0:8), flags (8:10) and keycode (12:16) are ignored on send
	binary.NativeEndian.PutUint16(b[10:12], proto)
	binary.NativeEndian.PutUint64(b[16:24], uint64(address)<<8|uint64(function))
	return b, nil
}
