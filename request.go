package keepsake

// SaveMode selects which entities a save captures.
type SaveMode string

const (
	// SaveModeFiltered captures only entities carrying the Persist marker.
	SaveModeFiltered SaveMode = "filtered"
	// SaveModeDump captures every live entity, whatever its markers. Dump
	// files are a diagnostic aid: they are human-readable pictures of the
	// whole world, and loading one is not guaranteed to produce a coherent
	// world because it can contain entities that the running application
	// will spawn again on its own.
	SaveModeDump SaveMode = "dump"
)

type requestKind string

const (
	requestKindSave requestKind = "save"
	requestKindLoad requestKind = "load"
)

// Request is a pending save or load intent. The world holds at most one: the
// slot is single-entry and enqueueing is last-write-wins. Overwriting a
// pending request is a caller error that the engine logs but does not
// arbitrate.
type Request struct {
	kind requestKind
	path string
	mode SaveMode
}

// EnqueueSave requests that all Persist-marked entities be captured and
// written to path during the Save phase of the current or next tick. The
// request is fire-and-forget: failures are reported through logs, not
// through a return value.
func (w *World) EnqueueSave(path string) {
	w.enqueue(&Request{kind: requestKindSave, path: path, mode: SaveModeFiltered})
}

// EnqueueDump requests that every entity be captured and written to path
// during the Save phase of the current or next tick. See SaveModeDump.
func (w *World) EnqueueDump(path string) {
	w.enqueue(&Request{kind: requestKindSave, path: path, mode: SaveModeDump})
}

// EnqueueLoad requests that the snapshot at path be applied during the Load
// phase of the next tick. Before the snapshot is read, every entity marked
// Persist or Unload is despawned recursively. If reading or decoding then
// fails, those entities are already gone and are not restored; the load
// aborts with a logged error and the world keeps running in that unloaded
// state.
func (w *World) EnqueueLoad(path string) {
	w.enqueue(&Request{kind: requestKindLoad, path: path})
}

func (w *World) enqueue(req *Request) {
	prev := w.pendingRequest.Swap(req)
	if prev != nil {
		w.logger.Warn().
			Str("previous_kind", string(prev.kind)).
			Str("previous_path", prev.path).
			Str("kind", string(req.kind)).
			Str("path", req.path).
			Msg("overwriting pending snapshot request")
	}
}
