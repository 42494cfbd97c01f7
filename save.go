package keepsake

import (
	"context"

	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/scene"
	"github.com/keepsake-dev/keepsake/types"
)

// runSavePhase resolves a pending save request. All failures are recoverable:
// they are logged with their cause and the phase aborts without touching the
// store. An empty selection is not a failure; it produces a valid empty
// snapshot.
func (w *World) runSavePhase(ctx context.Context, req *Request) {
	logger := w.logger.With().
		Str("phase", "save").
		Str("path", req.path).
		Str("mode", string(req.mode)).
		Logger()

	var entities []types.Entity
	switch req.mode {
	case SaveModeDump:
		entities = w.Search(filter.All()).Collect()
	default:
		entities = w.Search(filter.Contains(Persist{})).Collect()
	}

	sc, err := scene.Extract(w, entities)
	if err != nil {
		logger.Error().Err(err).Msg("scene extraction failed")
		return
	}

	serialized, err := sc.Encode()
	if err != nil {
		logger.Error().Err(err).Msg("serialization failed")
		return
	}

	if err := w.snapshots.Write(ctx, req.path, serialized); err != nil {
		logger.Error().Err(err).Msg("save failed")
		return
	}

	logger.Info().Int("entities", len(entities)).Msg("save successful")
}
