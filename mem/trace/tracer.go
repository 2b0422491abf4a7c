package trace

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
)

// Table names used by the DBTracer.
const (
	WriteBackTable = "write_backs"
	AccessTable    = "accesses"
)

// WriteBackEntry is a row of the write-back table. SQLite integers are
// signed, so Address holds the bits of the block address; convert it back
// with uint64(Address).
type WriteBackEntry struct {
	ID      string
	Cache   string `cachesim_data:"index"`
	Address int64  `cachesim_data:"index"`
}

// AccessEntry is a row of the access table. Address is stored like in
// WriteBackEntry.
type AccessEntry struct {
	ID      string
	Cache   string `cachesim_data:"index"`
	Address int64
	IsWrite bool
	Hit     bool
}

// A DBTracer is a hook that records what caches do into a data recorder.
// Write-backs are always recorded. Accesses are recorded only if enabled, as
// there is one per trace record and cache level.
type DBTracer struct {
	dataRecorder   datarecording.DataRecorder
	idGenerator    id.IDGenerator
	recordAccesses bool
}

// NewDBTracer creates a DBTracer and the tables it writes into.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	recordAccesses bool,
) *DBTracer {
	t := &DBTracer{
		dataRecorder:   dataRecorder,
		idGenerator:    id.NewIDGenerator(),
		recordAccesses: recordAccesses,
	}

	t.dataRecorder.CreateTable(WriteBackTable, WriteBackEntry{})

	if recordAccesses {
		t.dataRecorder.CreateTable(AccessTable, AccessEntry{})
	}

	return t
}

// Func records the hook item if the tracer knows it.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosWriteBack:
		t.recordWriteBack(ctx)
	case cache.HookPosAccess:
		if t.recordAccesses {
			t.recordAccess(ctx)
		}
	}
}

func (t *DBTracer) recordWriteBack(ctx hooking.HookCtx) {
	eviction, ok := ctx.Item.(cache.Eviction)
	if !ok {
		return
	}

	t.dataRecorder.InsertData(WriteBackTable, WriteBackEntry{
		ID:      t.idGenerator.Generate(),
		Cache:   ctx.Domain.Name(),
		Address: int64(eviction.Address),
	})
}

func (t *DBTracer) recordAccess(ctx hooking.HookCtx) {
	access, ok := ctx.Item.(cache.AccessEvent)
	if !ok {
		return
	}

	t.dataRecorder.InsertData(AccessTable, AccessEntry{
		ID:      t.idGenerator.Generate(),
		Cache:   ctx.Domain.Name(),
		Address: int64(access.Address),
		IsWrite: access.IsWrite,
		Hit:     access.Hit,
	})
}
