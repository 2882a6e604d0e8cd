package irweb

import (
	"encoding/json"
	"fmt"
	"io"
)

// DeviceConfig represents a manually configured Broadlink device (versus a
// device that is discovered).
type DeviceConfig struct {
	IP         string `json:"ip"`
	Mac        string `json:"mac"`
	DeviceType int    `json:"type"`
}

// IngestDeviceConfig reads a JSON stream and returns a slice of DeviceConfig
// structs. You use this to add devices to a Broadlink transmitter, bypassing
// the need for the discovery process.
func IngestDeviceConfig(r io.Reader) ([]DeviceConfig, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	d := []DeviceConfig{}
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("error decoding device config JSON: %v", err)
	}

	for i, dc := range d {
		if len(dc.IP) == 0 || len(dc.Mac) == 0 {
			return d, fmt.Errorf("device config %d must specify ip and mac", i)
		}
	}

	return d, nil
}
