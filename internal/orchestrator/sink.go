package orchestrator

import (
	"multiytdlp/internal/model"
	"multiytdlp/internal/progress"
)

// The methods below implement supervisor.Sink. They are fire-and-forget:
// a Supervisor goroutine sends a message and moves on, never waiting for
// the actor to process it.

func (h *Handle) ProcessStarted(id model.JobId, pid int) {
	h.msgs <- processStartedMsg{id: id, pid: pid}
}

func (h *Handle) UpdateProgress(id model.JobId, u progress.Update) {
	h.msgs <- updateProgressMsg{id: id, update: u}
}

func (h *Handle) NetworkSlotReleased(id model.JobId) {
	h.msgs <- networkSlotReleasedMsg{id: id}
}

func (h *Handle) JobCompleted(id model.JobId, outputPath string) {
	h.msgs <- jobCompletedMsg{id: id, path: outputPath}
}

func (h *Handle) JobError(id model.JobId, err error) {
	h.msgs <- jobErrorMsg{id: id, err: err}
}

func (h *Handle) WorkerFinished(id model.JobId) {
	h.msgs <- workerFinishedMsg{id: id}
}
