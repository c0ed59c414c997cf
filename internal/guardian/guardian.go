// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guardian orchestrates the change-capture pipeline: it owns the
// bounded event queue, the single consumer loop, and the maintenance
// scheduler.
// Implements: prd005-pipeline (R1-R6);
//
//	docs/ARCHITECTURE § Pipeline Orchestrator.
package guardian

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/lab-guardian/internal/dispatch"
	"github.com/pdiddy/lab-guardian/internal/indexer"
	"github.com/pdiddy/lab-guardian/internal/research"
	"github.com/pdiddy/lab-guardian/internal/score"
	"github.com/pdiddy/lab-guardian/internal/store"
	"github.com/pdiddy/lab-guardian/internal/watcher"
	"github.com/pdiddy/lab-guardian/pkg/types"
)

// State is the orchestrator lifecycle phase.
type State int32

const (
	StateInit State = iota
	StateBootstrapping
	StateActive
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateBootstrapping:
		return "bootstrapping"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stats holds the pipeline counters. The consumer loop is the only
// writer; the maintenance scheduler reads atomically.
type stats struct {
	eventsProcessed       atomic.Int64
	filesIndexed          atomic.Int64
	actionPointsGenerated atomic.Int64
	requestsSent          atomic.Int64
	papersTriggered       atomic.Int64
}

// Guardian wires the watch adapter, indexer, context engine, and dispatch
// gateway into a single pipeline with one consumer loop. Per-event
// failures are contained at this boundary: a bad event is logged and the
// loop moves on (R3.3).
type Guardian struct {
	cfg types.GuardianConfig
	w   io.Writer

	store   *store.Store
	indexer *indexer.Indexer
	engine  *research.Engine
	gateway *dispatch.Gateway
	watch   *watcher.Watcher

	state     atomic.Int32
	stats     stats
	startedAt time.Time

	cancel       context.CancelFunc
	consumerDone chan struct{}
	wg           sync.WaitGroup
}

// New builds a guardian from config. Opening the store is the only fatal
// setup failure besides directory creation (R1.1).
func New(cfg types.GuardianConfig, w io.Writer) (*Guardian, error) {
	cfg.ApplyDefaults()

	for _, dir := range []string{cfg.LogsDir, cfg.ActionPointsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	s, err := store.NewStore(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("acquiring durable store: %w", err)
	}

	ix, err := indexer.New(context.Background(), s, cfg.Index)
	if err != nil {
		s.Close()
		return nil, err
	}

	gw, err := dispatch.NewGateway(cfg.Dispatch, w)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &Guardian{
		cfg:          cfg,
		w:            w,
		store:        s,
		indexer:      ix,
		engine:       research.NewEngine(cfg.Triage, s),
		gateway:      gw,
		watch:        watcher.New(cfg.Watch, w),
		consumerDone: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle phase.
func (g *Guardian) State() State {
	return State(g.state.Load())
}

// Stats returns a snapshot of the pipeline counters.
func (g *Guardian) Stats() types.GuardianStats {
	return types.GuardianStats{
		EventsProcessed:       g.stats.eventsProcessed.Load(),
		EventsDropped:         g.watch.Dropped(),
		FilesIndexed:          g.stats.filesIndexed.Load(),
		ActionPointsGenerated: g.stats.actionPointsGenerated.Load(),
		RequestsSent:          g.stats.requestsSent.Load(),
		PapersTriggered:       g.stats.papersTriggered.Load(),
	}
}

// QueueDepth returns the number of changes waiting in the bounded queue.
func (g *Guardian) QueueDepth() int {
	return len(g.watch.Changes())
}

// Bootstrap walks every watch root and indexes every existing file,
// logging progress every hundred files (R1.2). A root that cannot be
// walked is skipped with a warning; bootstrap fails only when no root
// was walkable.
func (g *Guardian) Bootstrap(ctx context.Context) error {
	g.state.Store(int32(StateBootstrapping))
	fmt.Fprintf(g.w, "bootstrapping: scanning %d root(s)\n", len(g.cfg.Watch.Roots))

	walked := 0
	count := 0
	for _, root := range g.cfg.Watch.Roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				// An error on the root itself means the whole root is
				// unwalkable; anything deeper is skipped file by file.
				if path == root {
					return err
				}
				fmt.Fprintf(g.w, "warning: skipping %s: %v\n", path, err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if _, changed, err := g.indexer.Index(ctx, path); err != nil {
				fmt.Fprintf(g.w, "warning: indexing %s: %v\n", path, err)
			} else if changed {
				g.stats.filesIndexed.Add(1)
			}
			count++
			if count%100 == 0 {
				fmt.Fprintf(g.w, "indexed %d files...\n", count)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(g.w, "warning: cannot walk root %s: %v\n", root, err)
			continue
		}
		walked++
	}

	if walked == 0 {
		return fmt.Errorf("bootstrap: no walkable roots among %v", g.cfg.Watch.Roots)
	}

	fmt.Fprintf(g.w, "bootstrap complete: scanned %d files\n", count)
	return nil
}

// Start bootstraps the index, starts the watch adapter, and launches the
// consumer loop and maintenance scheduler. The guardian is Active only
// after all of these succeed (R1.3).
func (g *Guardian) Start(ctx context.Context) error {
	if g.State() != StateInit {
		return fmt.Errorf("start from state %s", g.State())
	}
	g.startedAt = time.Now()

	if err := g.Bootstrap(ctx); err != nil {
		return err
	}

	if err := g.watch.Start(g.cfg.Watch.Roots); err != nil {
		return fmt.Errorf("starting watch adapter: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer close(g.consumerDone)
		g.consume(runCtx)
	}()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.maintenanceLoop(runCtx)
	}()

	g.state.Store(int32(StateActive))
	fmt.Fprintf(g.w, "guardian active: watching %v\n", g.cfg.Watch.Roots)
	return nil
}

// Stop drains and shuts down: the adapter is stopped first so no new
// input arrives, the consumer drains the queue up to DrainTimeout, then a
// final stats snapshot and health report are written (R4.1-R4.3).
func (g *Guardian) Stop() {
	if g.State() != StateActive {
		g.Close()
		return
	}
	g.state.Store(int32(StateDraining))
	fmt.Fprintf(g.w, "draining event queue...\n")

	g.watch.Stop()

	select {
	case <-g.consumerDone:
	case <-time.After(g.cfg.DrainTimeout):
		fmt.Fprintf(g.w, "warning: drain timeout after %v, %d change(s) abandoned\n",
			g.cfg.DrainTimeout, g.QueueDepth())
	}

	g.cancel()
	g.wg.Wait()

	if err := g.writeStatsSnapshot(); err != nil {
		fmt.Fprintf(g.w, "warning: final stats snapshot: %v\n", err)
	}
	if err := g.writeHealthReport(); err != nil {
		fmt.Fprintf(g.w, "warning: final health report: %v\n", err)
	}

	g.store.Close()
	g.state.Store(int32(StateStopped))
	fmt.Fprintf(g.w, "guardian stopped\n")
}

// Close releases resources without the drain protocol. Used when the
// guardian never reached Active.
func (g *Guardian) Close() {
	g.store.Close()
	g.state.Store(int32(StateStopped))
}

// consume is the single consumer loop. Cancellation is honored between
// events, never mid-event (R3.4). The loop also ends when the adapter's
// channel closes during draining.
func (g *Guardian) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-g.watch.Changes():
			if !ok {
				return
			}
			g.process(ctx, change)
		}
	}
}

// process runs one change through indexing, triage, and dispatch. Every
// stage failure is contained here: logged with the event id, never
// propagated past the loop (R3.3).
func (g *Guardian) process(ctx context.Context, change types.RawChange) {
	event := types.LabEvent{
		ID:        "event-" + uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      change.Kind,
		Path:      change.Path,
		Details: map[string]string{
			"is_directory": strconv.FormatBool(change.IsDirectory),
		},
		SignificanceScore: score.Score(change),
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(g.w, "warning: event %s: stage panic: %v\n", event.ID, r)
		}
	}()

	g.stats.eventsProcessed.Add(1)

	// Below the relevance floor the event is discarded, not logged.
	if event.SignificanceScore < g.cfg.Triage.RelevanceFloor {
		return
	}

	if (change.Kind == types.ChangeCreated || change.Kind == types.ChangeModified) && !change.IsDirectory {
		if _, changed, err := g.indexer.Index(ctx, change.Path); err != nil {
			fmt.Fprintf(g.w, "warning: event %s: indexing %s: %v\n", event.ID, change.Path, err)
		} else if changed {
			g.stats.filesIndexed.Add(1)
		}
	}

	rc, err := g.engine.UpdateContext(ctx, event)
	if err != nil {
		fmt.Fprintf(g.w, "warning: event %s: context update: %v\n", event.ID, err)
		g.logEvent(event)
		return
	}
	event.ContextHash = research.ContextHash(rc)

	if event.SignificanceScore > g.cfg.Triage.ActionThreshold {
		event.ActionPoints = rc.ActionPoints
		g.stats.actionPointsGenerated.Add(int64(len(rc.ActionPoints)))

		if err := g.saveActionPoints(event); err != nil {
			fmt.Fprintf(g.w, "warning: event %s: saving action points: %v\n", event.ID, err)
		}

		if event.SignificanceScore > g.cfg.Triage.DispatchThreshold {
			if _, err := g.gateway.Send(ctx, rc.ActionPoints, rc); err != nil {
				fmt.Fprintf(g.w, "warning: event %s: dispatch: %v\n", event.ID, err)
			} else {
				g.stats.requestsSent.Add(1)
			}
		}

		if event.SignificanceScore > g.cfg.Triage.PaperThreshold {
			findings := map[string]string{
				"path":          event.Path,
				"significance":  strconv.FormatFloat(event.SignificanceScore, 'f', 2, 64),
				"action_points": strconv.Itoa(len(rc.ActionPoints)),
			}
			if _, err := g.gateway.EmitPaperRequest("breakthrough_"+string(event.Kind), findings); err != nil {
				fmt.Fprintf(g.w, "warning: event %s: paper escalation: %v\n", event.ID, err)
			} else {
				g.stats.papersTriggered.Add(1)
			}
		}
	}

	g.logEvent(event)
}

func (g *Guardian) logEvent(event types.LabEvent) {
	if err := appendEvent(g.cfg.LogsDir, event); err != nil {
		fmt.Fprintf(g.w, "warning: event %s: appending event log: %v\n", event.ID, err)
	}
}
