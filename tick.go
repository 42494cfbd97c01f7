package keepsake

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/keepsake-dev/keepsake/log"
	"github.com/keepsake-dev/keepsake/stage"
)

// World lifecycle stages.
const (
	StageInit         stage.Stage = "Init"
	StageRunning      stage.Stage = "Running"
	StageShuttingDown stage.Stage = "ShuttingDown"
	StageShutDown     stage.Stage = "ShutDown"
)

// Tick runs one tick. Phase order is fixed:
//
//  1. Load: a pending load request despawns the unloadable entities, reads
//     the snapshot, and spawns its contents. Loads therefore apply before
//     any system can observe or mutate the world this tick.
//  2. Post-Load: if a load just completed, registered fix-ups rewrite stored
//     entity references and the Restored tags are cleared.
//  3. Systems: ordinary registered systems, in registration order.
//  4. Save: a pending save request captures and writes a snapshot. Saves run
//     after systems so they see the tick's final state.
//
// The request slot is popped once, at the start of the tick. A save enqueued
// by a system during phase 3 is still pending at the next tick's pop, so it
// captures that next tick's final state.
func (w *World) Tick(ctx context.Context) (err error) {
	if w.worldStage.Current() == StageShutDown {
		return eris.Errorf("invalid world stage to tick: %s", w.worldStage.Current())
	}

	// This defer is here to catch any panics that occur during the tick. It will log the current tick and the
	// current system that is running.
	defer w.handleTickPanic()

	w.logger.Debug().Uint64("tick", w.CurrentTick()).Msg("tick started")

	req := w.pendingRequest.Swap(nil)

	if req != nil && req.kind == requestKindLoad {
		w.runLoadPhase(ctx, req)
	}

	if err := w.runPostLoadPhase(); err != nil {
		return err
	}

	if err := w.systemManager.runSystems(w); err != nil {
		return err
	}

	if req != nil && req.kind == requestKindSave {
		w.runSavePhase(ctx, req)
	}

	w.tick.Add(1)
	return nil
}

// StartLoop starts ticking the world. Each message on the tick channel
// triggers one tick. After StartLoop is called, RegisterComponent,
// RegisterSystems, and RegisterFixup may not be called. If StartLoop doesn't
// encounter any errors, it blocks until the world is shut down, ticking in
// the background.
func (w *World) StartLoop() error {
	// World stage: Init -> Running
	ok := w.worldStage.CompareAndSwap(StageInit, StageRunning)
	if !ok {
		return errors.New("world has already been started")
	}

	if len(w.componentManager.GetComponents()) == 0 {
		w.logger.Warn().Msg("No components registered")
	}
	if len(w.systemManager.GetRegisteredSystemNames()) == 0 {
		w.logger.Warn().Msg("No systems registered")
	}

	// Log world info
	log.World(&w.logger, w, zerolog.InfoLevel)

	w.startTickLoop(context.Background(), w.tickChannel, w.tickDoneChannel)

	// handle shutdown via a signal
	w.handleShutdown()
	<-w.worldStage.NotifyOnStage(StageShutDown)
	return nil
}

// IsRunning reports whether the tick loop is live.
func (w *World) IsRunning() bool {
	return w.worldStage.Current() == StageRunning
}

func (w *World) startTickLoop(ctx context.Context, tickStart <-chan time.Time, tickDone chan<- uint64) {
	w.logger.Info().Msg("Tick loop started")
	go func() {
		var waitingChs []chan struct{}
	loop:
		for {
			select {
			case _, ok := <-tickStart:
				if !ok {
					panic("tickStart channel has been closed; tick rate is now unbounded.")
				}
				w.tickTheEngine(ctx, tickDone)
				closeAllChannels(waitingChs)
				waitingChs = waitingChs[:0]
			case <-w.worldStage.NotifyOnStage(StageShuttingDown):
				w.drainChannelsWaitingForNextTick()
				closeAllChannels(waitingChs)
				if w.pendingRequest.Load() != nil {
					// Tick once more so a pending save or load resolves
					// instead of being dropped on the floor.
					w.tickTheEngine(ctx, tickDone)
				}
				if tickDone != nil {
					close(tickDone)
				}
				break loop
			case ch := <-w.addChannelWaitingForNextTick:
				waitingChs = append(waitingChs, ch)
			}
		}
		w.worldStage.Store(StageShutDown)
	}()
}

func (w *World) tickTheEngine(ctx context.Context, tickDone chan<- uint64) {
	currTick := w.CurrentTick()
	// this is the final point where errors bubble up and hit a panic. There are other places where this occurs
	// but this is the highest terminal point.
	// the panic may point you to here, (or the tick function) but the real stack trace is in the error message.
	err := w.Tick(ctx)
	if err != nil {
		bytes, errMarshal := json.Marshal(eris.ToJSON(err, true))
		if errMarshal != nil {
			panic(errMarshal)
		}
		panic(string(bytes))
	}
	if tickDone != nil {
		tickDone <- currTick
	}
}

// Shutdown stops the tick loop. It blocks until the loop has fully stopped
// and then closes the snapshot store.
func (w *World) Shutdown() error {
	w.logger.Info().Msg("Shutting down tick loop.")
	ok := w.worldStage.CompareAndSwap(StageRunning, StageShuttingDown)
	if !ok {
		select {
		case <-w.worldStage.NotifyOnStage(StageShuttingDown):
			// Some other goroutine has already started the shutdown process. Wait until the world is
			// actually shut down.
			<-w.worldStage.NotifyOnStage(StageShutDown)
			return nil
		default:
		}
		return errors.New("shutdown attempted before the world was started")
	}

	// Block until the world has stopped ticking
	<-w.worldStage.NotifyOnStage(StageShutDown)

	w.logger.Info().Msg("Successfully shut down tick loop.")
	if closer, ok := w.snapshots.(interface{ Close() error }); ok {
		w.logger.Info().Msg("Closing snapshot store.")
		if err := closer.Close(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to close snapshot store.")
			return err
		}
		w.logger.Info().Msg("Successfully closed snapshot store.")
	}
	return nil
}

func (w *World) handleShutdown() {
	signalChannel := make(chan os.Signal, 1)
	go func() {
		signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
		for sig := range signalChannel {
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				err := w.Shutdown()
				if err != nil {
					w.logger.Err(err).Msgf("There was an error during shutdown.")
				}
				return
			}
		}
	}()
}

func (w *World) handleTickPanic() {
	if r := recover(); r != nil {
		w.logger.Error().Msgf(
			"Tick: %d, Current running system: %s",
			w.CurrentTick(),
			w.systemManager.GetCurrentSystem(),
		)
		panic(r)
	}
}

func closeAllChannels(chs []chan struct{}) {
	for _, ch := range chs {
		close(ch)
	}
}

// drainChannelsWaitingForNextTick continually closes any channels that are added to the
// addChannelWaitingForNextTick channel. This is used when the engine is shut down; it ensures
// any calls to WaitForNextTick that happen after a shutdown will not block.
func (w *World) drainChannelsWaitingForNextTick() {
	go func() {
		for ch := range w.addChannelWaitingForNextTick {
			close(ch)
		}
	}()
}

// WaitForNextTick blocks until at least one tick has completed. It returns true if it successfully
// waited for a tick. False may be returned if the world was shut down while waiting for the next
// tick to complete.
func (w *World) WaitForNextTick() (success bool) {
	startTick := w.CurrentTick()
	ch := make(chan struct{})
	w.addChannelWaitingForNextTick <- ch
	<-ch
	return w.CurrentTick() > startTick
}
