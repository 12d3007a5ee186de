// Package core orchestrates function invocations: it resolves program blobs,
// hands the executor a sandbox, and journals every boundary operation.
package core

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kraukis/substore/internal/journal"
	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/sandbox"
	"github.com/kraukis/substore/internal/store"
)

// programCacheSize bounds the decoded-program cache.
const programCacheSize = 256

// Sentinel errors for invocation failures that occur before the executor is
// ever entered.
var (
	ErrNotProgram      = errors.New("blob is not a program")
	ErrUnknownFunction = errors.New("program has no such function")
	ErrArityMismatch   = errors.New("argument count does not match function signature")
)

// Engine drives program invocations against a blob store through an opaque
// executor.
type Engine struct {
	store *store.Store
	exec  sandbox.Executor
	tape  *journal.Journal

	// programs caches decoded function sets of immutable program blobs,
	// keyed by a hash of their contents. Mutable programs are re-decoded
	// per invocation since an authorized write may replace their function
	// bodies at any time.
	programs *lru.Cache[[sha256.Size]byte, *models.Program]
}

// New creates an engine over the given store and executor. tape may be nil,
// in which case no execution journal is kept.
func New(st *store.Store, exec sandbox.Executor, tape *journal.Journal) (*Engine, error) {
	programs, err := lru.New[[sha256.Size]byte, *models.Program](programCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create program cache: %w", err)
	}
	return &Engine{store: st, exec: exec, tape: tape, programs: programs}, nil
}

// Store returns the engine's blob store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Invoke runs a named function of a program blob. Each store operation the
// function issues commits independently as it is issued; a later fault does
// not roll back earlier operations. The error is an *sandbox.Fault when the
// executor itself failed.
func (e *Engine) Invoke(ctx context.Context, program models.BlobID, function string, args [][]byte) ([]byte, error) {
	var rec sandbox.Recorder
	var inv *journal.Invocation
	if e.tape != nil {
		var err error
		inv, err = e.tape.Begin(program, function)
		if err != nil {
			return nil, fmt.Errorf("begin tape entry: %w", err)
		}
		rec = inv
	}

	sb := sandbox.New(e.store, rec, e.invoke)
	ret, err := e.invoke(ctx, program, function, args, sb)

	if inv != nil {
		if ferr := inv.Finish(ret, err); ferr != nil && err == nil {
			err = fmt.Errorf("finish tape entry: %w", ferr)
		}
	}
	return ret, err
}

// invoke resolves and executes one function on an existing sandbox. It is
// also the re-entry point for cross-program calls, which run on the caller's
// sandbox with the callee's identity pushed.
func (e *Engine) invoke(ctx context.Context, program models.BlobID, function string, args [][]byte, sb *sandbox.Sandbox) ([]byte, error) {
	blob, err := e.store.Get(program)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", program.Short(), err)
	}
	if blob.Kind != models.KindProgram {
		return nil, fmt.Errorf("blob %s: %w", program.Short(), ErrNotProgram)
	}

	prog, err := e.decodeProgram(blob)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", program.Short(), err)
	}

	fn, ok := prog.Function(function)
	if !ok {
		return nil, fmt.Errorf("program %s function %q: %w", program.Short(), function, ErrUnknownFunction)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("function %q takes %d arguments, got %d: %w",
			function, len(fn.Params), len(args), ErrArityMismatch)
	}

	sb.PushIdentity(program)
	defer sb.PopIdentity()

	ret, err := e.exec.Execute(ctx, blob, fn, args, sb)
	if err != nil {
		var fault *sandbox.Fault
		if !errors.As(err, &fault) {
			err = &sandbox.Fault{Program: program, Function: function, Err: err}
		}
		return nil, err
	}
	return ret, nil
}

// decodeProgram returns the function set of a program blob, caching decoded
// immutable programs. The cache is keyed by a hash of the contents, not the
// blob id: derivation ignores contents, so a delete-and-recreate can put a
// different function set behind the same id.
func (e *Engine) decodeProgram(blob *models.Blob) (*models.Program, error) {
	var key [sha256.Size]byte
	if blob.Mutability == models.Immutable {
		key = sha256.Sum256(blob.Contents)
		if prog, ok := e.programs.Get(key); ok {
			return prog, nil
		}
	}
	prog, err := models.DecodeProgram(blob.Contents)
	if err != nil {
		return nil, err
	}
	if blob.Mutability == models.Immutable {
		e.programs.Add(key, prog)
	}
	return prog, nil
}
