package irremote

import "fmt"

// Timings in microseconds.
const (
	rc5Unit = 889
	rc5Gap  = 88886 // rest of the 113.778 ms RC5 frame period

	rc6Unit        = 444
	rc6LeaderMark  = 6 * rc6Unit
	rc6LeaderSpace = 2 * rc6Unit
	rc6Gap         = 83000
)

// pulseBuilder collects alternating mark/space durations. The first entry
// is always a mark; adjacent half-bits of the same level are merged.
type pulseBuilder struct {
	durations []int
	mark      bool // level of the last entry
}

func (b *pulseBuilder) add(mark bool, us int) {
	if len(b.durations) == 0 {
		if !mark {
			return
		}
		b.durations = append(b.durations, us)
		b.mark = true
		return
	}
	if mark == b.mark {
		b.durations[len(b.durations)-1] += us
		return
	}
	b.durations = append(b.durations, us)
	b.mark = mark
}

// end terminates the frame with a space of at least gap.
func (b *pulseBuilder) end(gap int) []int {
	if b.mark {
		b.durations = append(b.durations, gap)
	} else if len(b.durations) > 0 {
		b.durations[len(b.durations)-1] = gap
	}
	return b.durations
}

// rc5Pulses encodes cmd as a single RC5 frame. A logical 1 is space then
// mark, a logical 0 is mark then space.
func rc5Pulses(cmd Command, toggle bool) []int {
	address, function := rc5Fields(cmd)

	bits := []bool{true, function < 0x40, toggle}
	for i := 4; i >= 0; i-- {
		bits = append(bits, address>>uint(i)&1 == 1)
	}
	for i := 5; i >= 0; i-- {
		bits = append(bits, function>>uint(i)&1 == 1)
	}

	var b pulseBuilder
	for _, bit := range bits {
		b.add(!bit, rc5Unit)
		b.add(bit, rc5Unit)
	}
	return b.end(rc5Gap)
}

// rc6Pulses encodes cmd as a single RC6 mode 0 frame. RC6 uses the opposite
// Manchester convention to RC5 and a double width trailer (toggle) bit.
func rc6Pulses(cmd Command, toggle bool) []int {
	address, function := rc6Fields(cmd)

	var b pulseBuilder
	b.add(true, rc6LeaderMark)
	b.add(false, rc6LeaderSpace)

	bit := func(v bool, unit int) {
		b.add(v, unit)
		b.add(!v, unit)
	}
	bit(true, rc6Unit) // start
	for i := 0; i < 3; i++ {
		bit(false, rc6Unit) // mode 0
	}
	bit(toggle, 2*rc6Unit)
	for i := 7; i >= 0; i-- {
		bit(address>>uint(i)&1 == 1, rc6Unit)
	}
	for i := 7; i >= 0; i-- {
		bit(function>>uint(i)&1 == 1, rc6Unit)
	}
	return b.end(rc6Gap)
}

// commandPulses returns the mark/space timings for one frame of cmd.
func commandPulses(cmd Command, toggle bool) ([]int, error) {
	switch cmd.Protocol {
	case ProtocolRC5:
		return rc5Pulses(cmd, toggle), nil
	case ProtocolRC6:
		return rc6Pulses(cmd, toggle), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, cmd.Protocol)
}

// broadlinkIRData packs pulses into the IR data block understood by
// Broadlink RM devices. Durations are in units of 269/8192 µs; values that
// don't fit in a byte are written as 0x00 followed by a big endian uint16.
func broadlinkIRData(durations []int, repeats int) []byte {
	body := make([]byte, 0, len(durations)+2)
	for _, us := range durations {
		units := (us*269 + 4096) / 8192
		if units < 256 {
			body = append(body, byte(units))
			continue
		}
		body = append(body, 0x00, byte(units>>8), byte(units))
	}
	body = append(body, 0x0d, 0x05)

	data := make([]byte, 4, 4+len(body))
	data[0] = 0x26 // IR
	data[1] = byte(repeats)
	data[2] = byte(len(body) & 0xff)
	data[3] = byte(len(body) >> 8)
	return append(data, body...)
}
