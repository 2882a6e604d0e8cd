package irremote

import (
	"errors"
	"fmt"
	"log"

	"github.com/VictoriaMetrics/metrics"
)

// Errors returned by transmitters.
var (
	ErrNoDevices           = errors.New("no devices")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// Transmitter emits a single command. Implementations block until the
// command has been handed to the hardware.
type Transmitter interface {
	Transmit(cmd Command) error
}

// Dispatcher hands decoded commands to a Transmitter. It never reports
// failures to its caller; they are logged and counted instead.
type Dispatcher struct {
	tx Transmitter
}

// NewDispatcher instantiates a Dispatcher that sends through tx.
func NewDispatcher(tx Transmitter) *Dispatcher {
	return &Dispatcher{tx: tx}
}

// Dispatch transmits cmd exactly once.
func (d *Dispatcher) Dispatch(cmd Command) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`irremote_transmissions_total{protocol=%q}`, cmd.Protocol.String())).Inc()
	if err := d.tx.Transmit(cmd); err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`irremote_transmission_errors_total{protocol=%q}`, cmd.Protocol.String())).Inc()
		log.Printf("Error transmitting %v: %v", cmd, err)
	}
}
