package irremote

import (
	"io"
	"log"
)

// LogTransmitter writes every command to a logger instead of hardware. It is
// the default when no device is configured.
type LogTransmitter struct {
	logger *log.Logger
}

// NewLogTransmitter logs to w, or to the standard logger when w is nil.
func NewLogTransmitter(w io.Writer) *LogTransmitter {
	if w == nil {
		return &LogTransmitter{logger: log.Default()}
	}
	return &LogTransmitter{logger: log.New(w, "", log.LstdFlags)}
}

// Transmit logs cmd.
func (t *LogTransmitter) Transmit(cmd Command) error {
	t.logger.Printf("Transmit %v", cmd)
	return nil
}
