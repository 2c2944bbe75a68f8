package orchestrator_test

import (
	"errors"
	"path/filepath"
	"testing"

	"multiytdlp/internal/apperr"
	"multiytdlp/internal/config"
	"multiytdlp/internal/jobstore"
	"multiytdlp/internal/model"
	"multiytdlp/internal/orchestrator"
	"multiytdlp/internal/progress"
)

type fakeIndicator struct {
	progressCalls int
	lastFraction  float64
	lastErrorTint bool
	cleared       bool
	notifyTitle   string
	notifyBody    string
	notified      bool
}

func (f *fakeIndicator) SetProgress(fraction float64, errorTint bool) {
	f.progressCalls++
	f.lastFraction = fraction
	f.lastErrorTint = errorTint
}
func (f *fakeIndicator) Clear() { f.cleared = true }
func (f *fakeIndicator) Notify(title, body string) {
	f.notified = true
	f.notifyTitle = title
	f.notifyBody = body
}

type fakeHistory struct {
	recorded []model.Job
}

func (f *fakeHistory) Record(job model.Job) {
	f.recorded = append(f.recorded, job)
}

// noAdmission builds Deps whose caps are zero, so AddJob never spawns a
// real Supervisor/subprocess — the tests below drive lifecycle messages
// directly via the Sink methods instead.
func noAdmission(t *testing.T, ind orchestrator.Indicator, hist orchestrator.HistoryRecorder) orchestrator.Deps {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.MaxConcurrentDownloads = 0
	cfg.MaxTotalInstances = 0
	return orchestrator.Deps{
		Store:      jobstore.New(filepath.Join(dir, "jobs.json")),
		Cfg:        cfg,
		WorkerPath: filepath.Join(dir, "worker"),
		StagingDir: filepath.Join(dir, "staging"),
		Indicator:  ind,
		History:    hist,
	}
}

func TestAddJob_DuplicateRejected(t *testing.T) {
	h := orchestrator.NewHandle(noAdmission(t, nil, nil))
	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}

	if err := h.AddJob(job); err != nil {
		t.Fatalf("first AddJob: %v", err)
	}
	err := h.AddJob(job)
	if !errors.Is(err, apperr.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}
}

func TestAddJob_InsertsPendingJob(t *testing.T) {
	h := orchestrator.NewHandle(noAdmission(t, nil, nil))
	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}

	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	got, found := h.GetJob(job.ID)
	if !found {
		t.Fatal("job not found after AddJob")
	}
	if got.Status != model.StatusPending {
		t.Errorf("status = %v, want Pending", got.Status)
	}
}

func TestCancelJob_IdempotentAndNoopOnUnknown(t *testing.T) {
	h := orchestrator.NewHandle(noAdmission(t, nil, nil))
	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}
	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := h.CancelJob(job.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	got, _ := h.GetJob(job.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %v, want Cancelled", got.Status)
	}

	if err := h.CancelJob(job.ID); err != nil {
		t.Fatalf("second cancel should be a no-op, got: %v", err)
	}

	if err := h.CancelJob(model.NewJobId()); err != nil {
		t.Fatalf("cancel of unknown id should be a no-op, got: %v", err)
	}
}

func TestCancelJob_DuringDownload_IgnoresLateCompletion(t *testing.T) {
	hist := &fakeHistory{}
	h := orchestrator.NewHandle(noAdmission(t, nil, hist))

	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}
	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	h.ProcessStarted(job.ID, 4242)
	got, _ := h.GetJob(job.ID)
	if got.Status != model.StatusDownloading {
		t.Fatalf("status after ProcessStarted = %v, want Downloading", got.Status)
	}

	if err := h.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	got, _ = h.GetJob(job.ID)
	if got.Status != model.StatusCancelled {
		t.Fatalf("status after CancelJob = %v, want Cancelled", got.Status)
	}

	// The supervisor goroutine races the cancellation: its worker may have
	// already exited (successfully or not) before observing ctx.Err(), so a
	// late terminal Sink call can still arrive after the cancel. It must be
	// a no-op: the job stays Cancelled and no duplicate history/event fires.
	h.JobCompleted(job.ID, "/dest/video.mp4")
	got, _ = h.GetJob(job.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("status after late JobCompleted = %v, want still Cancelled", got.Status)
	}
	if got.OutputPath != "" {
		t.Errorf("OutputPath = %q, want untouched by late JobCompleted", got.OutputPath)
	}
	if len(hist.recorded) != 1 || hist.recorded[0].Status != model.StatusCancelled {
		t.Errorf("history recorded = %+v, want only the cancellation's record, none from a no-op completion", hist.recorded)
	}
}

func TestCancelJob_DuringDownload_IgnoresLateError(t *testing.T) {
	hist := &fakeHistory{}
	h := orchestrator.NewHandle(noAdmission(t, nil, hist))

	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}
	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	h.ProcessStarted(job.ID, 4242)
	if err := h.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}

	h.JobError(job.ID, apperr.New("test", apperr.ErrWorkerFailed))
	got, _ := h.GetJob(job.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("status after late JobError = %v, want still Cancelled", got.Status)
	}
	if got.ErrorMsg != "" {
		t.Errorf("ErrorMsg = %q, want untouched by late JobError", got.ErrorMsg)
	}
	if len(hist.recorded) != 1 || hist.recorded[0].Status != model.StatusCancelled {
		t.Errorf("history recorded = %+v, want only the cancellation's record, none from a no-op error", hist.recorded)
	}
}

func TestResumePending_RestoresFromDisk(t *testing.T) {
	deps := noAdmission(t, nil, nil)
	existing := []model.QueuedJob{
		{ID: model.NewJobId(), URL: "https://host/a", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"},
		{ID: model.NewJobId(), URL: "https://host/b", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"},
	}
	if err := deps.Store.Save(existing); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := orchestrator.NewHandle(deps)
	restored, err := h.ResumePending()
	if err != nil {
		t.Fatalf("ResumePending: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("restored = %d jobs, want 2", len(restored))
	}

	jobs := h.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("ListJobs = %d, want 2", len(jobs))
	}
}

func TestGetPendingCount_ReadsDisk(t *testing.T) {
	deps := noAdmission(t, nil, nil)
	if err := deps.Store.Save([]model.QueuedJob{{ID: model.NewJobId()}, {ID: model.NewJobId()}, {ID: model.NewJobId()}}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := orchestrator.NewHandle(deps)
	count, err := h.GetPendingCount()
	if err != nil {
		t.Fatalf("GetPendingCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSupervisorLifecycle_CompletesAndNotifies(t *testing.T) {
	ind := &fakeIndicator{}
	hist := &fakeHistory{}
	h := orchestrator.NewHandle(noAdmission(t, ind, hist))

	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}
	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	h.ProcessStarted(job.ID, 4242)
	got, _ := h.GetJob(job.ID)
	if got.Pid != 4242 || got.Status != model.StatusDownloading {
		t.Fatalf("after ProcessStarted: %+v", got)
	}

	h.UpdateProgress(job.ID, progress.Update{Percentage: 42, Phase: progress.PhaseDownloading})
	got, _ = h.GetJob(job.ID)
	if got.Progress != 42 {
		t.Errorf("progress = %v, want 42", got.Progress)
	}

	h.JobCompleted(job.ID, "/dest/video.mp4")
	got, _ = h.GetJob(job.ID)
	if got.Status != model.StatusCompleted || got.OutputPath != "/dest/video.mp4" {
		t.Fatalf("after JobCompleted: %+v", got)
	}

	h.WorkerFinished(job.ID)
	// ListJobs is reply-based, so by the time it returns, WorkerFinished's
	// session-complete notification has already been applied.
	h.ListJobs()

	if !ind.notified {
		t.Error("expected session-complete notification")
	}
	if len(hist.recorded) != 1 || hist.recorded[0].Status != model.StatusCompleted {
		t.Errorf("history recorded = %+v", hist.recorded)
	}
}

func TestJobError_RecordsHistoryAndStatus(t *testing.T) {
	hist := &fakeHistory{}
	h := orchestrator.NewHandle(noAdmission(t, nil, hist))

	job := model.QueuedJob{ID: model.NewJobId(), URL: "https://host/v", FormatPreset: model.PresetBest, FilenameTemplate: "%(title)s.%(ext)s"}
	if err := h.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	h.JobError(job.ID, apperr.New("test", apperr.ErrWorkerFailed))
	got, _ := h.GetJob(job.ID)
	if got.Status != model.StatusError {
		t.Fatalf("status = %v, want Error", got.Status)
	}
	if got.ErrorMsg == "" {
		t.Error("expected non-empty ErrorMsg")
	}
	if len(hist.recorded) != 1 {
		t.Errorf("history recorded = %d entries, want 1", len(hist.recorded))
	}
}
