package journal

import (
	"encoding/json"
	"fmt"
	"io"
)

// TapeEntry pairs an invocation with its recorded operations for export.
type TapeEntry struct {
	Invocation *InvocationRecord `json:"invocation"`
	Operations []*OpRecord       `json:"operations,omitempty"`
}

// Export writes the full tape as pretty-printed JSON, oldest invocation
// first, so an external verifier can replay derivations and outcomes.
func (j *Journal) Export(w io.Writer) error {
	invocations, err := j.Invocations(0)
	if err != nil {
		return err
	}

	// Invocations come back newest first; replay order is oldest first.
	entries := make([]*TapeEntry, 0, len(invocations))
	for i := len(invocations) - 1; i >= 0; i-- {
		inv := invocations[i]
		ops, err := j.Operations(inv.ID)
		if err != nil {
			return err
		}
		entries = append(entries, &TapeEntry{Invocation: inv, Operations: ops})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tape: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write tape: %w", err)
	}
	return nil
}
