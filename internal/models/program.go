package models

import (
	"encoding/json"
	"fmt"
)

// Function is one named entry point of a program blob. The instruction
// sequence is opaque to the engine; only the external executor interprets it.
type Function struct {
	Name    string   `json:"name"`
	Params  []string `json:"params,omitempty"`
	Returns string   `json:"returns,omitempty"`
	Code    []byte   `json:"code"`
}

// Program is the decoded contents of a program blob: a fixed collection of
// named functions. For an Immutable program blob the function set can never
// change; a Mutable program blob may have its function bodies replaced by an
// authorized write, subject to the same rules as data writes.
type Program struct {
	Functions map[string]*Function `json:"functions"`
}

// Function looks up a function by name.
func (p *Program) Function(name string) (*Function, bool) {
	fn, ok := p.Functions[name]
	return fn, ok
}

// EncodeProgram serializes a program into blob contents.
func EncodeProgram(p *Program) ([]byte, error) {
	if len(p.Functions) == 0 {
		return nil, fmt.Errorf("program has no functions")
	}
	for name, fn := range p.Functions {
		if fn == nil {
			return nil, fmt.Errorf("function %q is nil", name)
		}
		if fn.Name != name {
			return nil, fmt.Errorf("function key %q does not match name %q", name, fn.Name)
		}
	}
	return json.Marshal(p)
}

// DecodeProgram parses program blob contents.
func DecodeProgram(contents []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(contents, &p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if len(p.Functions) == 0 {
		return nil, fmt.Errorf("decode program: no functions")
	}
	return &p, nil
}
