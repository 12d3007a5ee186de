package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/sandbox"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	require.NoError(t, j.Initialize())
	return j
}

func TestJournal_BeginFinish(t *testing.T) {
	j := newTestJournal(t)
	program := models.BlobID{1}

	inv, err := j.Begin(program, "mint")
	require.NoError(t, err)
	require.NoError(t, inv.Finish([]byte("result"), nil))

	records, err := j.Invocations(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, inv.ID(), records[0].ID)
	assert.Equal(t, program.String(), records[0].Program)
	assert.Equal(t, "mint", records[0].Function)
	assert.Equal(t, "ok", records[0].Status)
	assert.Empty(t, records[0].Error)
}

func TestJournal_FinishFault(t *testing.T) {
	j := newTestJournal(t)

	inv, err := j.Begin(models.BlobID{1}, "mint")
	require.NoError(t, err)
	require.NoError(t, inv.Finish(nil, errors.New("executor trap")))

	records, err := j.Invocations(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fault", records[0].Status)
	assert.Equal(t, "executor trap", records[0].Error)
}

func TestJournal_RecordOps(t *testing.T) {
	j := newTestJournal(t)
	program := models.BlobID{1}
	target := models.BlobID{2}

	inv, err := j.Begin(program, "mint")
	require.NoError(t, err)

	inv.RecordOp(sandbox.Op{Name: sandbox.OpCreate, Blob: target, Requester: program})
	inv.RecordOp(sandbox.Op{Name: sandbox.OpWrite, Blob: target, Requester: program, Err: errors.New("blob is immutable")})
	require.NoError(t, inv.Finish(nil, nil))

	ops, err := j.Operations(inv.ID())
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, 0, ops[0].Seq)
	assert.Equal(t, sandbox.OpCreate, ops[0].Op)
	assert.Equal(t, target.String(), ops[0].BlobID)
	assert.Equal(t, program.String(), ops[0].Requester)
	assert.Equal(t, "ok", ops[0].Outcome)

	assert.Equal(t, 1, ops[1].Seq)
	assert.Equal(t, "blob is immutable", ops[1].Outcome, "failed operations land on the tape too")
}

func TestJournal_ReopenSettlesInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	program := models.BlobID{1}

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Initialize())

	// Never finished: stands in for a process that died mid-invocation.
	interrupted, err := j.Begin(program, "mint")
	require.NoError(t, err)
	interrupted.RecordOp(sandbox.Op{Name: sandbox.OpCreate, Blob: models.BlobID{2}, Requester: program})

	finished, err := j.Begin(program, "balance")
	require.NoError(t, err)
	require.NoError(t, finished.Finish(nil, nil))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Initialize())

	records, err := j.Invocations(0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[int64]*InvocationRecord{records[0].ID: records[0], records[1].ID: records[1]}
	assert.Equal(t, "fault", byID[interrupted.ID()].Status)
	assert.Equal(t, "interrupted", byID[interrupted.ID()].Error)
	assert.Equal(t, "ok", byID[finished.ID()].Status, "finished entries are left alone")

	// The partial operation list survives.
	ops, err := j.Operations(interrupted.ID())
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, sandbox.OpCreate, ops[0].Op)
}

func TestJournal_InvocationsNewestFirstWithLimit(t *testing.T) {
	j := newTestJournal(t)

	for _, fn := range []string{"first", "second", "third"} {
		inv, err := j.Begin(models.BlobID{1}, fn)
		require.NoError(t, err)
		require.NoError(t, inv.Finish(nil, nil))
	}

	records, err := j.Invocations(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Function)
	assert.Equal(t, "second", records[1].Function)
}

func TestJournal_OperationsScopedToInvocation(t *testing.T) {
	j := newTestJournal(t)
	program := models.BlobID{1}

	first, err := j.Begin(program, "a")
	require.NoError(t, err)
	first.RecordOp(sandbox.Op{Name: sandbox.OpRead, Blob: models.BlobID{2}, Requester: program})
	require.NoError(t, first.Finish(nil, nil))

	second, err := j.Begin(program, "b")
	require.NoError(t, err)
	second.RecordOp(sandbox.Op{Name: sandbox.OpDelete, Blob: models.BlobID{3}, Requester: program})
	second.RecordOp(sandbox.Op{Name: sandbox.OpRead, Blob: models.BlobID{4}, Requester: program})
	require.NoError(t, second.Finish(nil, nil))

	ops, err := j.Operations(second.ID())
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, sandbox.OpDelete, ops[0].Op)
}

func TestJournal_Export(t *testing.T) {
	j := newTestJournal(t)
	program := models.BlobID{1}

	for _, fn := range []string{"first", "second"} {
		inv, err := j.Begin(program, fn)
		require.NoError(t, err)
		inv.RecordOp(sandbox.Op{Name: sandbox.OpCreate, Blob: models.BlobID{2}, Requester: program})
		require.NoError(t, inv.Finish([]byte("ok"), nil))
	}

	var buf bytes.Buffer
	require.NoError(t, j.Export(&buf))

	var entries []*TapeEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Invocation.Function, "export replays oldest first")
	assert.Equal(t, "second", entries[1].Invocation.Function)
	require.Len(t, entries[0].Operations, 1)
	assert.Equal(t, sandbox.OpCreate, entries[0].Operations[0].Op)
}

func TestJournal_ExportEmpty(t *testing.T) {
	j := newTestJournal(t)

	var buf bytes.Buffer
	require.NoError(t, j.Export(&buf))

	var entries []*TapeEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.Empty(t, entries)
}
