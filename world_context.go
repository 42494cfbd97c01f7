package keepsake

import "github.com/rs/zerolog"

// WorldContext is the view of the world passed to systems and to the
// package-level entity operations. Systems receive a context whose logger is
// scoped to the running system.
type WorldContext interface {
	// CurrentTick returns the current tick.
	CurrentTick() uint64

	// Logger returns the logger for the current context.
	Logger() *zerolog.Logger

	// EnqueueSave requests a filtered save to the given path. The request is
	// processed during the Save phase at the end of the current tick.
	EnqueueSave(path string)

	// EnqueueDump requests an unfiltered save to the given path.
	EnqueueDump(path string)

	// EnqueueLoad requests a load from the given path. The request is
	// processed during the Load phase at the start of the next tick.
	EnqueueLoad(path string)

	// world is private to prevent external implementations of WorldContext.
	world() *World
}

var _ WorldContext = (*worldContext)(nil)

type worldContext struct {
	w      *World
	logger *zerolog.Logger
}

// NewWorldContext returns a WorldContext for use outside of systems, e.g. in
// tests or setup code that runs between ticks.
func NewWorldContext(w *World) WorldContext {
	return &worldContext{w: w, logger: &w.logger}
}

func (ctx *worldContext) CurrentTick() uint64 {
	return ctx.w.CurrentTick()
}

func (ctx *worldContext) Logger() *zerolog.Logger {
	return ctx.logger
}

func (ctx *worldContext) EnqueueSave(path string) {
	ctx.w.EnqueueSave(path)
}

func (ctx *worldContext) EnqueueDump(path string) {
	ctx.w.EnqueueDump(path)
}

func (ctx *worldContext) EnqueueLoad(path string) {
	ctx.w.EnqueueLoad(path)
}

func (ctx *worldContext) world() *World {
	return ctx.w
}
