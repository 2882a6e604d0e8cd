package irweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kwkoo/irremote"
)

// instructionType represents the different kinds of macro instructions.
type instructionType int

// All the different enumerations of instructionType.
const (
	pressInstruction instructionType = iota
	sendInstruction
	sendRC6Instruction
	pauseInstruction // in milliseconds
)

type instruction struct {
	kind  instructionType
	token string
	args  [2]int
}

// Macro is a series of instructions executed as a group, in order. An
// example of a macros JSON would be:
// [
//   {"name":"tv_on", "instructions":["press power", "pause 3000", "press volmin"]},
//   {"name":"radio", "instructions":["press fmradio", "send6 4 247"]}
// ]
//
// There are 4 types of instructions:
//
// press TOKEN sends a named button.
// send FUNCTION sends a raw RC5 function code.
// send6 ADDRESS FUNCTION sends an RC6 command; ADDRESS is a single digit.
// pause INTERVAL waits INTERVAL milliseconds.
type Macro struct {
	Name         string
	instructions []instruction
}

type macroJSON struct {
	Name         string   `json:"name"`
	Instructions []string `json:"instructions"`
}

// IngestMacros reads a JSON stream and returns the macros keyed by name.
// Button tokens are checked against buttons.
func IngestMacros(r io.Reader, buttons *irremote.ButtonTable) (map[string]Macro, error) {
	m := make(map[string]Macro)

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	macros := []macroJSON{}
	if err := dec.Decode(&macros); err != nil {
		return m, fmt.Errorf("error decoding macros JSON: %v", err)
	}

	for _, mj := range macros {
		if len(mj.Name) == 0 {
			return m, fmt.Errorf("macro without a name")
		}
		macro := Macro{Name: mj.Name}
		for _, s := range mj.Instructions {
			inst, err := parseInstruction(s, buttons)
			if err != nil {
				return m, fmt.Errorf("macro %v: %v", mj.Name, err)
			}
			macro.instructions = append(macro.instructions, inst)
		}
		m[mj.Name] = macro
	}

	return m, nil
}

func parseInstruction(s string, buttons *irremote.ButtonTable) (instruction, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return instruction{}, fmt.Errorf("\"%v\" is an invalid instruction", s)
	}

	ints := func(want int) ([2]int, error) {
		var out [2]int
		if len(fields)-1 != want {
			return out, fmt.Errorf("\"%v\" expects %d argument(s)", s, want)
		}
		for i, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return out, fmt.Errorf("\"%v\" is not a valid number in \"%v\"", f, s)
			}
			out[i] = n
		}
		return out, nil
	}

	switch fields[0] {
	case "press":
		if len(fields) != 2 {
			return instruction{}, fmt.Errorf("\"%v\" expects a button", s)
		}
		if _, ok := buttons.Lookup(fields[1]); !ok {
			return instruction{}, fmt.Errorf("unknown button \"%v\"", fields[1])
		}
		return instruction{kind: pressInstruction, token: fields[1]}, nil
	case "send":
		args, err := ints(1)
		return instruction{kind: sendInstruction, args: args}, err
	case "send6":
		args, err := ints(2)
		if err == nil && (args[0] < 0 || args[0] > 9) {
			err = fmt.Errorf("RC6 address %d in \"%v\" must be a single digit", args[0], s)
		}
		return instruction{kind: sendRC6Instruction, args: args}, err
	case "pause":
		args, err := ints(1)
		if err == nil && args[0] < 0 {
			err = fmt.Errorf("pause interval in \"%v\" must not be negative", s)
		}
		return instruction{kind: pauseInstruction, args: args}, err
	}
	return instruction{}, fmt.Errorf("\"%v\" is an invalid instruction", s)
}

// Len returns the number of instructions.
func (m Macro) Len() int {
	return len(m.instructions)
}

// Run executes the instructions through c, stopping at the first error or
// when ctx is done.
func (m Macro) Run(ctx context.Context, c *Client) error {
	for _, inst := range m.instructions {
		var err error
		switch inst.kind {
		case pressInstruction:
			err = c.Press(ctx, inst.token)
		case sendInstruction:
			err = c.Send(ctx, inst.args[0])
		case sendRC6Instruction:
			err = c.SendRC6(ctx, inst.args[0], inst.args[1])
		case pauseInstruction:
			select {
			case <-time.After(time.Duration(inst.args[0]) * time.Millisecond):
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		if err != nil {
			return fmt.Errorf("macro %v: %v", m.Name, err)
		}
	}
	return nil
}
