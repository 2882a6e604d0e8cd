package irweb

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kwkoo/irremote"
)

// IngestButtons reads a JSON stream and returns a button table. An example
// of a buttons JSON would be:
// [
//   {"token":"power", "label":"Power", "code":12},
//   {"token":"mute", "label":"Mute", "code":13}
// ]
//
// The label defaults to the token.
func IngestButtons(r io.Reader) (*irremote.ButtonTable, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	b := []irremote.Button{}
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("error decoding buttons JSON: %v", err)
	}

	table, err := irremote.NewButtonTable(b)
	if err != nil {
		return nil, fmt.Errorf("invalid buttons JSON: %v", err)
	}
	return table, nil
}
