package sandbox

import (
	"context"
	"fmt"

	"github.com/kraukis/substore/internal/models"
)

// HandlerFunc is a scripted function body for the mock executor.
type HandlerFunc func(ctx context.Context, sb *Sandbox, args [][]byte) ([]byte, error)

// MockExecutor is an Executor for testing. Function bodies are Go closures
// registered per (program, function) pair instead of interpreted code.
type MockExecutor struct {
	// Handlers maps "programID/function" to a scripted body.
	Handlers map[string]HandlerFunc
	// Err can be set to make every execution fail.
	Err error
}

// NewMockExecutor creates an empty MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{Handlers: make(map[string]HandlerFunc)}
}

// Handle registers a scripted body for a program function.
func (m *MockExecutor) Handle(program models.BlobID, function string, h HandlerFunc) {
	m.Handlers[handlerKey(program, function)] = h
}

// Execute runs the scripted body registered for the program function.
func (m *MockExecutor) Execute(ctx context.Context, program *models.Blob, fn *models.Function, args [][]byte, sb *Sandbox) ([]byte, error) {
	if m.Err != nil {
		return nil, &Fault{Program: program.ID, Function: fn.Name, Err: m.Err}
	}
	h, ok := m.Handlers[handlerKey(program.ID, fn.Name)]
	if !ok {
		return nil, &Fault{Program: program.ID, Function: fn.Name, Err: fmt.Errorf("no scripted handler")}
	}
	return h(ctx, sb, args)
}

func handlerKey(program models.BlobID, function string) string {
	return program.String() + "/" + function
}
