package orchestrator

import (
	"multiytdlp/internal/apperr"
	"multiytdlp/internal/model"
	"multiytdlp/internal/progress"
	"multiytdlp/internal/worker"
)

// AddJob enqueues job for admission. Duplicate ids are rejected.
func (h *Handle) AddJob(job model.QueuedJob) error {
	reply := make(chan error, 1)
	h.msgs <- addJobMsg{job: job, reply: reply}
	return <-reply
}

// CancelJob cancels id. Always succeeds (idempotent); unknown or already
// terminal ids are a no-op.
func (h *Handle) CancelJob(id model.JobId) error {
	reply := make(chan error, 1)
	h.msgs <- cancelJobMsg{id: id, reply: reply}
	return <-reply
}

// GetPendingCount reads the persistence file and reports the entry count.
func (h *Handle) GetPendingCount() (int, error) {
	reply := make(chan pendingCountResult, 1)
	h.msgs <- getPendingCountMsg{reply: reply}
	r := <-reply
	return r.count, r.err
}

// ResumePending loads the persistence file and re-enqueues every entry not
// already tracked, returning the list of restored jobs.
func (h *Handle) ResumePending() ([]model.QueuedJob, error) {
	reply := make(chan resumeResult, 1)
	h.msgs <- resumePendingMsg{reply: reply}
	r := <-reply
	return r.jobs, r.err
}

// ClearPending deletes the persistence file and sweeps the staging dir.
func (h *Handle) ClearPending() error {
	reply := make(chan error, 1)
	h.msgs <- clearPendingMsg{reply: reply}
	return <-reply
}

// GetJob returns a snapshot of one job's runtime state.
func (h *Handle) GetJob(id model.JobId) (model.Job, bool) {
	reply := make(chan getJobResult, 1)
	h.msgs <- getJobMsg{id: id, reply: reply}
	r := <-reply
	return r.job, r.found
}

// ListJobs returns a snapshot of every tracked job.
func (h *Handle) ListJobs() []model.Job {
	reply := make(chan []model.Job, 1)
	h.msgs <- listJobsMsg{reply: reply}
	return <-reply
}

type pendingCountResult struct {
	count int
	err   error
}

type resumeResult struct {
	jobs []model.QueuedJob
	err  error
}

type getJobResult struct {
	job   model.Job
	found bool
}

type addJobMsg struct {
	job   model.QueuedJob
	reply chan error
}

func (m addJobMsg) apply(o *orchestrator) {
	if _, exists := o.jobs[m.job.ID]; exists {
		m.reply <- apperr.New("orchestrator.AddJob", apperr.ErrDuplicateJob)
		return
	}

	o.jobs[m.job.ID] = &model.Job{ID: m.job.ID, URL: m.job.URL, Status: model.StatusPending, Progress: 0}
	o.persisted[m.job.ID] = m.job
	o.queue = append(o.queue, m.job)
	o.persist()
	o.admit()
	m.reply <- nil
}

type cancelJobMsg struct {
	id    model.JobId
	reply chan error
}

func (m cancelJobMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists || job.Status.IsTerminal() {
		m.reply <- nil
		return
	}

	if job.HasPid() {
		if err := worker.Interrupt(job.Pid); err != nil {
			o.deps.Logger.Warn().Err(err).Str("job", m.id.String()).Msg("interrupt failed")
		}
	}
	if cancel, ok := o.cancels[m.id]; ok {
		cancel()
	}

	job.Status = model.StatusCancelled
	if o.deps.History != nil {
		o.deps.History.Record(*job)
	}
	delete(o.persisted, m.id)
	o.persist()
	o.emitError(m.id, "Cancelled by user")
	m.reply <- nil
}

type processStartedMsg struct {
	id  model.JobId
	pid int
}

func (m processStartedMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists {
		return
	}
	if job.Status == model.StatusCancelled {
		if err := worker.Interrupt(m.pid); err != nil {
			o.deps.Logger.Warn().Err(err).Str("job", m.id.String()).Msg("interrupt of freshly started pid failed")
		}
		return
	}
	job.Pid = m.pid
	job.Status = model.StatusDownloading
}

type updateProgressMsg struct {
	id     model.JobId
	update progress.Update
}

func (m updateProgressMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists {
		return
	}
	job.Progress = m.update.Percentage
	o.pending[m.id] = model.ProgressUpdate{
		JobId:      m.id,
		Percentage: m.update.Percentage,
		Speed:      m.update.SpeedText,
		ETA:        m.update.ETAText,
		Filename:   m.update.Filename,
		Phase:      m.update.Phase,
	}
}

type networkSlotReleasedMsg struct {
	id model.JobId
}

func (m networkSlotReleasedMsg) apply(o *orchestrator) {
	if o.holdsNetwork[m.id] {
		o.activeNetwork--
		o.holdsNetwork[m.id] = false
	}
	o.admit()
}

type jobCompletedMsg struct {
	id   model.JobId
	path string
}

func (m jobCompletedMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists || job.Status.IsTerminal() {
		// Already Cancelled (or otherwise terminal) — the worker finished
		// after the user's cancellation raced it; the cancel handler already
		// set the final status and emitted its own event.
		return
	}

	job.Status = model.StatusCompleted
	job.Progress = 100
	job.OutputPath = m.path
	delete(o.persisted, m.id)
	o.persist()
	o.completedSession++
	if o.deps.History != nil {
		o.deps.History.Record(*job)
	}
	o.emitComplete(m.id, m.path)
}

type jobErrorMsg struct {
	id  model.JobId
	err error
}

func (m jobErrorMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists || job.Status.IsTerminal() {
		// Already Cancelled (or otherwise terminal) — the cancel handler
		// already recorded the final status and emitted its own event.
		return
	}

	job.Status = model.StatusError
	job.ErrorMsg = m.err.Error()
	if o.deps.History != nil {
		o.deps.History.Record(*job)
	}
	o.emitError(m.id, m.err.Error())
}

type workerFinishedMsg struct {
	id model.JobId
}

func (m workerFinishedMsg) apply(o *orchestrator) {
	if _, admitted := o.holdsNetwork[m.id]; admitted {
		o.activeProcess--
	}
	if o.holdsNetwork[m.id] {
		o.activeNetwork--
	}
	delete(o.holdsNetwork, m.id)
	delete(o.cancels, m.id)

	if o.activeNetwork == 0 && o.activeProcess == 0 {
		if len(o.queue) == 0 && len(o.persisted) == 0 {
			o.sweepStaging()
		}
		o.notifySessionComplete()
		o.completedSession = 0
	}

	o.admit()
	o.recomputeIndicator()
}

type getPendingCountMsg struct {
	reply chan pendingCountResult
}

func (m getPendingCountMsg) apply(o *orchestrator) {
	jobs, err := o.deps.Store.Load()
	m.reply <- pendingCountResult{count: len(jobs), err: err}
}

type resumePendingMsg struct {
	reply chan resumeResult
}

func (m resumePendingMsg) apply(o *orchestrator) {
	jobs, err := o.deps.Store.Load()
	if err != nil {
		m.reply <- resumeResult{err: err}
		return
	}

	var restored []model.QueuedJob
	for _, qj := range jobs {
		if _, exists := o.jobs[qj.ID]; exists {
			continue
		}
		o.jobs[qj.ID] = &model.Job{ID: qj.ID, URL: qj.URL, Status: model.StatusPending}
		o.persisted[qj.ID] = qj
		o.queue = append(o.queue, qj)
		restored = append(restored, qj)
	}
	o.persist()
	o.admit()
	m.reply <- resumeResult{jobs: restored}
}

type clearPendingMsg struct {
	reply chan error
}

func (m clearPendingMsg) apply(o *orchestrator) {
	err := o.deps.Store.Clear()
	o.sweepStaging()
	m.reply <- err
}

type getJobMsg struct {
	id    model.JobId
	reply chan getJobResult
}

func (m getJobMsg) apply(o *orchestrator) {
	job, exists := o.jobs[m.id]
	if !exists {
		m.reply <- getJobResult{}
		return
	}
	m.reply <- getJobResult{job: *job, found: true}
}

type listJobsMsg struct {
	reply chan []model.Job
}

func (m listJobsMsg) apply(o *orchestrator) {
	out := make([]model.Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		out = append(out, *job)
	}
	m.reply <- out
}
