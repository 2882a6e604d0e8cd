package irremote

import "fmt"

// Protocol denotes the IR framing used to transmit a command.
type Protocol int

// Enumerations of Protocol.
const (
	ProtocolRC5 Protocol = iota // single-field, address is always 0 for web requests
	ProtocolRC6                 // mode 0, address + function
)

// NoRepeat is the repeat count used for every transmission.
const NoRepeat = 0

func (p Protocol) String() string {
	switch p {
	case ProtocolRC5:
		return "RC5"
	case ProtocolRC6:
		return "RC6"
	}
	return fmt.Sprintf("Protocol(%d)", int(p))
}

// Command is a decoded transmission request.
type Command struct {
	Protocol Protocol
	Address  int
	Function int
	Repeats  int
}

// RC5Command returns the single-field command used for named buttons and raw
// /c/ requests.
func RC5Command(function int) Command {
	return Command{Protocol: ProtocolRC5, Address: 0, Function: function, Repeats: NoRepeat}
}

// RC6Command returns an address+function command.
func RC6Command(address, function int) Command {
	return Command{Protocol: ProtocolRC6, Address: address, Function: function, Repeats: NoRepeat}
}

func (c Command) String() string {
	return fmt.Sprintf("%v address %d function %d repeats %d", c.Protocol, c.Address, c.Function, c.Repeats)
}
