// Package sandbox defines the boundary between a running program function
// and the blob store. Every store-affecting operation a function performs
// goes through exactly this boundary, and every failure is returned to the
// function as a value it can branch on — never a silent no-op.
package sandbox

import (
	"context"
	"fmt"

	"github.com/kraukis/substore/internal/ident"
	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/store"
)

// Op names for journal records.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpWrite  = "write"
	OpDelete = "delete"
	OpCall   = "call"
)

// Op is one store-affecting operation observed at the boundary.
type Op struct {
	Name      string
	Blob      models.BlobID
	Requester models.BlobID
	Err       error
}

// Recorder receives every operation crossing the boundary, in issue order.
type Recorder interface {
	RecordOp(op Op)
}

// CallFunc re-enters the engine for a cross-program call. The callee runs on
// the same sandbox, with its identity pushed on the stack for the duration.
type CallFunc func(ctx context.Context, program models.BlobID, function string, args [][]byte, sb *Sandbox) ([]byte, error)

// Sandbox is the per-invocation handle a program function uses to affect the
// store. The identity stack tracks which program is currently executing;
// Self is the requester identity for every operation.
type Sandbox struct {
	store *store.Store
	stack IdentityStack
	rec   Recorder
	call  CallFunc
}

// New creates a sandbox over the given store. rec and call may be nil; a nil
// call makes cross-program calls fail.
func New(st *store.Store, rec Recorder, call CallFunc) *Sandbox {
	return &Sandbox{store: st, rec: rec, call: call}
}

// Self returns the identity of the currently executing program.
func (sb *Sandbox) Self() models.BlobID {
	return sb.stack.Top()
}

// PushIdentity enters a program's execution context. The engine pushes the
// invoked program before handing the sandbox to the executor.
func (sb *Sandbox) PushIdentity(id models.BlobID) {
	sb.stack.Push(id)
}

// PopIdentity leaves the current execution context.
func (sb *Sandbox) PopIdentity() {
	sb.stack.Pop()
}

// Read returns a read-only view of any blob. Read access is unrestricted by
// ownership.
func (sb *Sandbox) Read(id models.BlobID) (*models.Blob, error) {
	b, err := sb.store.Get(id)
	sb.record(Op{Name: OpRead, Blob: id, Requester: sb.Self(), Err: err})
	return b, err
}

// Write overwrites the contents of a blob the invoking program owns directly
// or through its chain root.
func (sb *Sandbox) Write(id models.BlobID, contents []byte) error {
	err := sb.store.Write(sb.Self(), id, contents)
	sb.record(Op{Name: OpWrite, Blob: id, Requester: sb.Self(), Err: err})
	return err
}

// Create derives a BlobID from the invoking program's identity, the kind,
// and the argument list, and inserts a new blob with those contents. The
// invoking program is recorded as the owner. With selfOwned, the new blob is
// declared its own master instead; only a program that is itself a master
// may create masters. On ErrBlobExists the function may retry with different
// arguments — the sandbox never retries on its own.
func (sb *Sandbox) Create(kind models.Kind, mut models.Mutability, args []models.Argument, contents []byte, selfOwned bool) (models.BlobID, error) {
	self := sb.Self()
	id := ident.Derive(self, kind, args)

	create := func() error {
		for _, a := range args {
			if err := a.Validate(); err != nil {
				return err
			}
		}
		blob := &models.Blob{
			ID:         id,
			Kind:       kind,
			Mutability: mut,
			Owner:      self,
			Contents:   contents,
		}
		if selfOwned {
			blob.Owner = id
			return sb.store.CreateMaster(self, blob)
		}
		return sb.store.Create(blob)
	}

	err := create()
	sb.record(Op{Name: OpCreate, Blob: id, Requester: self, Err: err})
	if err != nil {
		return models.ZeroID, err
	}
	return id, nil
}

// Delete removes a blob under the same authorization rule as Write.
func (sb *Sandbox) Delete(id models.BlobID) error {
	err := sb.store.Delete(sb.Self(), id)
	sb.record(Op{Name: OpDelete, Blob: id, Requester: sb.Self(), Err: err})
	return err
}

// Call invokes a function of another program blob. The callee executes with
// its own identity on top of the stack, so blobs it creates are owned by it,
// not by the caller.
func (sb *Sandbox) Call(ctx context.Context, program models.BlobID, function string, args [][]byte) ([]byte, error) {
	if sb.call == nil {
		err := fmt.Errorf("cross-program calls not available")
		sb.record(Op{Name: OpCall, Blob: program, Requester: sb.Self(), Err: err})
		return nil, err
	}
	ret, err := sb.call(ctx, program, function, args, sb)
	sb.record(Op{Name: OpCall, Blob: program, Requester: sb.Self(), Err: err})
	return ret, err
}

func (sb *Sandbox) record(op Op) {
	if sb.rec != nil {
		sb.rec.RecordOp(op)
	}
}

// IdentityStack tracks the call contexts of nested program executions. The
// top entry is the identity charged with every boundary operation.
type IdentityStack struct {
	ids []models.BlobID
}

// Push enters an identity.
func (s *IdentityStack) Push(id models.BlobID) {
	s.ids = append(s.ids, id)
}

// Pop leaves the current identity. Popping an empty stack is a no-op.
func (s *IdentityStack) Pop() {
	if len(s.ids) > 0 {
		s.ids = s.ids[:len(s.ids)-1]
	}
}

// Top returns the current identity, or the zero id when no program is
// executing.
func (s *IdentityStack) Top() models.BlobID {
	if len(s.ids) == 0 {
		return models.ZeroID
	}
	return s.ids[len(s.ids)-1]
}

// Depth returns the number of nested execution contexts.
func (s *IdentityStack) Depth() int {
	return len(s.ids)
}
