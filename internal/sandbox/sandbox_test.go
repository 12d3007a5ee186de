package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraukis/substore/internal/ident"
	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/store"
)

// opLog is a Recorder that captures boundary operations in order.
type opLog struct {
	ops []Op
}

func (l *opLog) RecordOp(op Op) { l.ops = append(l.ops, op) }

// installMaster puts a self-owned master program directly into the store.
func installMaster(t *testing.T, st *store.Store, idByte byte) models.BlobID {
	t.Helper()
	id := models.BlobID{idByte}
	require.NoError(t, st.Create(&models.Blob{
		ID:         id,
		Kind:       models.KindProgram,
		Mutability: models.Immutable,
		Owner:      id,
		Contents:   []byte("code"),
	}))
	return id
}

func TestSandbox_CreateRecordsInvokerAsOwner(t *testing.T) {
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)

	args := []models.Argument{models.CounterArg(1)}
	id, err := sb.Create(models.KindData, models.Mutable, args, []byte("payload"), false)
	require.NoError(t, err)

	blob, err := st.Get(id)
	require.NoError(t, err)
	assert.Equal(t, program, blob.Owner, "owner must be the invoking program's identity")
	assert.Equal(t, ident.Derive(program, models.KindData, args), id)
	assert.Equal(t, []byte("payload"), blob.Contents)
}

func TestSandbox_CreateDuplicateFails(t *testing.T) {
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)

	args := []models.Argument{models.CounterArg(1)}
	_, err := sb.Create(models.KindData, models.Mutable, args, nil, false)
	require.NoError(t, err)

	_, err = sb.Create(models.KindData, models.Mutable, args, nil, false)
	assert.ErrorIs(t, err, store.ErrBlobExists)
}

func TestSandbox_CreateRetryWithNextCounter(t *testing.T) {
	// The sandbox never retries; the function retries with a bumped counter.
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)

	first, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, false)
	require.NoError(t, err)

	_, err = sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, false)
	require.ErrorIs(t, err, store.ErrBlobExists)

	second, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(2)}, nil, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 3, st.Len())
}

func TestSandbox_CreateSelfOwnedByMaster(t *testing.T) {
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)

	id, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.RawArg([]byte("vault"))}, nil, true)
	require.NoError(t, err)

	blob, err := st.Get(id)
	require.NoError(t, err)
	assert.True(t, blob.IsMaster(), "self-owned create must produce a master")
}

func TestSandbox_CreateSelfOwnedRequiresMaster(t *testing.T) {
	st := store.New()
	master := installMaster(t, st, 1)

	// A non-master program owned by master.
	sb := New(st, nil, nil)
	sb.PushIdentity(master)
	childProg, err := sb.Create(models.KindProgram, models.Immutable, []models.Argument{models.RawArg([]byte("sub"))}, []byte("code"), false)
	require.NoError(t, err)
	sb.PopIdentity()

	sb.PushIdentity(childProg)
	_, err = sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, true)
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestSandbox_CreateSelfOwnedByDeletedProgram(t *testing.T) {
	// A program deleted mid-invocation must not mint masters afterwards.
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)
	require.NoError(t, st.Delete(program, program))

	_, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestSandbox_ReadIsUnrestricted(t *testing.T) {
	st := store.New()
	p1 := installMaster(t, st, 1)
	p2 := installMaster(t, st, 2)

	sb := New(st, nil, nil)
	sb.PushIdentity(p1)
	x, err := sb.Create(models.KindData, models.Immutable, []models.Argument{models.CounterArg(1)}, []byte("secret"), false)
	require.NoError(t, err)
	sb.PopIdentity()

	// p2 has no ownership relation to x but may read it.
	sb.PushIdentity(p2)
	blob, err := sb.Read(x)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), blob.Contents)
}

func TestSandbox_WriteAuthorization(t *testing.T) {
	st := store.New()
	p1 := installMaster(t, st, 1)
	p2 := installMaster(t, st, 2)

	sb := New(st, nil, nil)
	sb.PushIdentity(p1)
	x, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, []byte("v1"), false)
	require.NoError(t, err)

	require.NoError(t, sb.Write(x, []byte("v2")))
	sb.PopIdentity()

	sb.PushIdentity(p2)
	err = sb.Write(x, []byte("intrusion"))
	assert.ErrorIs(t, err, store.ErrUnauthorized)

	blob, err := st.Get(x)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob.Contents)
}

func TestSandbox_DeleteAuthorization(t *testing.T) {
	st := store.New()
	p1 := installMaster(t, st, 1)
	p2 := installMaster(t, st, 2)

	sb := New(st, nil, nil)
	sb.PushIdentity(p1)
	x, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, false)
	require.NoError(t, err)
	sb.PopIdentity()

	sb.PushIdentity(p2)
	assert.ErrorIs(t, sb.Delete(x), store.ErrUnauthorized)
	sb.PopIdentity()

	sb.PushIdentity(p1)
	assert.NoError(t, sb.Delete(x))
}

func TestSandbox_RecorderSeesEveryOp(t *testing.T) {
	st := store.New()
	program := installMaster(t, st, 1)

	log := &opLog{}
	sb := New(st, log, nil)
	sb.PushIdentity(program)

	id, err := sb.Create(models.KindData, models.Mutable, []models.Argument{models.CounterArg(1)}, nil, false)
	require.NoError(t, err)
	_, err = sb.Read(id)
	require.NoError(t, err)
	require.NoError(t, sb.Write(id, []byte("x")))
	_, err = sb.Read(models.BlobID{9})
	require.ErrorIs(t, err, store.ErrNotFound)

	require.Len(t, log.ops, 4)
	assert.Equal(t, OpCreate, log.ops[0].Name)
	assert.Equal(t, OpRead, log.ops[1].Name)
	assert.Equal(t, OpWrite, log.ops[2].Name)
	assert.Equal(t, program, log.ops[2].Requester)
	assert.ErrorIs(t, log.ops[3].Err, store.ErrNotFound, "failures are recorded, not swallowed")
}

func TestSandbox_CallWithoutEngine(t *testing.T) {
	st := store.New()
	program := installMaster(t, st, 1)

	sb := New(st, nil, nil)
	sb.PushIdentity(program)

	_, err := sb.Call(context.Background(), models.BlobID{2}, "fn", nil)
	assert.Error(t, err)
}

func TestIdentityStack(t *testing.T) {
	var stack IdentityStack

	assert.Equal(t, models.ZeroID, stack.Top(), "empty stack yields the zero identity")
	assert.Equal(t, 0, stack.Depth())

	a, b := models.BlobID{1}, models.BlobID{2}
	stack.Push(a)
	stack.Push(b)
	assert.Equal(t, b, stack.Top())
	assert.Equal(t, 2, stack.Depth())

	stack.Pop()
	assert.Equal(t, a, stack.Top())

	stack.Pop()
	stack.Pop() // popping empty is a no-op
	assert.Equal(t, models.ZeroID, stack.Top())
}
