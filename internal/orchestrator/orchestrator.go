// Package orchestrator implements the Orchestrator Actor: the single
// exclusive owner of the job registry, the FIFO ready queue, the
// persistence registry, and the two-cap concurrency accounting. It is
// reached only through a Handle that sends typed messages over a bounded
// channel; the loop goroutine is the only thing that ever touches the
// state below, so no locks guard it.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"multiytdlp/internal/constants"
	"multiytdlp/internal/events"
	"multiytdlp/internal/model"
	"multiytdlp/internal/supervisor"
	"multiytdlp/internal/worker"
)

// msgQueueCapacity bounds the Handle's channel; back-pressure beyond this
// blocks the sender rather than growing memory without limit.
const msgQueueCapacity = 1000

// message is implemented by every typed message the actor loop accepts.
type message interface {
	apply(o *orchestrator)
}

// Handle is the only way to reach the Orchestrator. It is safe for
// concurrent use by the Command Facade and by every Supervisor it spawns.
type Handle struct {
	msgs chan message
}

// NewHandle constructs an Orchestrator around deps and starts its loop.
func NewHandle(deps Deps) *Handle {
	h := &Handle{msgs: make(chan message, msgQueueCapacity)}
	o := &orchestrator{
		deps:         deps,
		handle:       h,
		jobs:         make(map[model.JobId]*model.Job),
		persisted:    make(map[model.JobId]model.QueuedJob),
		holdsNetwork: make(map[model.JobId]bool),
		cancels:      make(map[model.JobId]context.CancelFunc),
		pending:      make(map[model.JobId]model.ProgressUpdate),
	}
	go o.loop()
	return h
}

// orchestrator holds all mutable state. Every field below is touched only
// from the loop goroutine.
type orchestrator struct {
	deps   Deps
	handle *Handle

	jobs         map[model.JobId]*model.Job
	queue        []model.QueuedJob
	persisted    map[model.JobId]model.QueuedJob
	holdsNetwork map[model.JobId]bool
	cancels      map[model.JobId]context.CancelFunc
	pending      map[model.JobId]model.ProgressUpdate

	activeNetwork     int
	activeProcess     int
	completedSession  int
}

func (o *orchestrator) loop() {
	ticker := time.NewTicker(constants.BatchProgressIntervalMillis * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case m, ok := <-o.handle.msgs:
			if !ok {
				return
			}
			m.apply(o)
		case <-ticker.C:
			o.flushBatch()
		}
	}
}

// admit pops queued jobs into Supervisor tasks while both caps allow it.
func (o *orchestrator) admit() {
	cfg := o.deps.Cfg.Get()
	for o.activeNetwork < cfg.MaxConcurrentDownloads &&
		o.activeProcess < cfg.MaxTotalInstances &&
		len(o.queue) > 0 {

		job := o.queue[0]
		o.queue = o.queue[1:]

		if runtimeJob, exists := o.jobs[job.ID]; exists && runtimeJob.Status == model.StatusCancelled {
			continue
		}

		o.activeNetwork++
		o.activeProcess++
		o.holdsNetwork[job.ID] = true
		o.spawn(job)
	}
}

func (o *orchestrator) spawn(job model.QueuedJob) {
	cfg := o.deps.Cfg.Get()
	ctx, cancel := context.WithCancel(context.Background())
	o.cancels[job.ID] = cancel

	opts := worker.Options{
		WorkerPath:    o.deps.WorkerPath,
		StagingDir:    o.deps.StagingDir,
		FFmpegPath:    o.deps.FFmpegPath,
		Aria2cPath:    o.deps.Aria2cPath,
		UseAria2c:     cfg.UseAria2c,
		JSRuntimePath: o.deps.JSRuntimePath,
	}

	go supervisor.Run(ctx, job, opts, o.handle, o.deps.Logger)
}

// persist snapshots the durable queue and dispatches the write so the
// actor loop never blocks on disk.
func (o *orchestrator) persist() {
	snapshot := make([]model.QueuedJob, 0, len(o.persisted))
	for _, job := range o.persisted {
		snapshot = append(snapshot, job)
	}
	store := o.deps.Store
	logger := o.deps.Logger
	go func() {
		if err := store.Save(snapshot); err != nil {
			logger.Error().Err(err).Msg("failed to persist job queue")
		}
	}()
}

func (o *orchestrator) sweepStaging() {
	entries, err := os.ReadDir(o.deps.StagingDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		_ = os.RemoveAll(filepath.Join(o.deps.StagingDir, entry.Name()))
	}
}

func (o *orchestrator) flushBatch() {
	if len(o.pending) > 0 {
		updates := make([]model.ProgressUpdate, 0, len(o.pending))
		for _, u := range o.pending {
			updates = append(updates, u)
		}
		o.pending = make(map[model.JobId]model.ProgressUpdate)
		emitEvent(events.DownloadProgressBatch, map[string]any{"updates": updates})
	}
	o.recomputeIndicator()
}

func (o *orchestrator) recomputeIndicator() {
	if o.deps.Indicator == nil {
		return
	}

	var sum float64
	var active int
	errorTint := false
	for _, job := range o.jobs {
		switch job.Status {
		case model.StatusDownloading, model.StatusPending:
			sum += job.Progress
			active++
		case model.StatusError:
			errorTint = true
		}
	}

	if active == 0 && !errorTint {
		o.deps.Indicator.Clear()
		return
	}
	fraction := 0.0
	if active > 0 {
		fraction = sum / float64(active) / 100.0
	}
	o.deps.Indicator.SetProgress(fraction, errorTint)
}

func (o *orchestrator) emitComplete(id model.JobId, path string) {
	emitEvent(events.DownloadComplete, map[string]any{"jobId": id.String(), "outputPath": path})
}

func (o *orchestrator) emitError(id model.JobId, msg string) {
	emitEvent(events.DownloadError, map[string]any{"jobId": id.String(), "error": msg})
}

func (o *orchestrator) notifySessionComplete() {
	if o.deps.Indicator == nil || o.completedSession == 0 {
		return
	}
	o.deps.Indicator.Notify("Downloads complete", fmt.Sprintf("%d file(s) finished", o.completedSession))
}

// emitEvent is nil-safe: application.Get() returns nil outside a running
// Wails runtime (e.g. in tests).
func emitEvent(name string, data any) {
	if app := application.Get(); app != nil {
		app.Event.Emit(name, data)
	}
}
