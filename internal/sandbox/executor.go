package sandbox

import (
	"context"
	"fmt"

	"github.com/kraukis/substore/internal/models"
)

// Executor runs one function of a program blob. The instruction set is
// opaque to the engine; the executor's only obligations are to route every
// store-affecting operation through the sandbox it is handed and to report
// failures as errors. Store operations committed before a fault stay
// committed — the engine does not roll back.
type Executor interface {
	Execute(ctx context.Context, program *models.Blob, fn *models.Function, args [][]byte, sb *Sandbox) ([]byte, error)
}

// Fault is an executor-reported invocation failure. It is propagated to the
// transaction layer as a failed invocation, never as a store fault.
type Fault struct {
	Program  models.BlobID
	Function string
	Err      error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("execution fault in %s.%s: %v", f.Program.Short(), f.Function, f.Err)
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}
