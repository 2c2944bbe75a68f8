// Package supervisor implements the per-job Process Supervisor: it
// assembles arguments, spawns the worker in the staging directory,
// multiplexes stdout/stderr into parsed progress updates, performs the
// staging-then-move publish step, classifies failures, and reports
// lifecycle messages back to a Sink.
package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"multiytdlp/internal/apperr"
	"multiytdlp/internal/model"
	"multiytdlp/internal/progress"
	"multiytdlp/internal/worker"
)

const ringBufferSize = 100

// Sink receives the lifecycle messages a Supervisor reports. The
// Orchestrator's Handle implements this interface; defining it here (not
// importing orchestrator) keeps the dependency one-directional.
type Sink interface {
	ProcessStarted(id model.JobId, pid int)
	UpdateProgress(id model.JobId, u progress.Update)
	NetworkSlotReleased(id model.JobId)
	JobCompleted(id model.JobId, outputPath string)
	JobError(id model.JobId, err error)
	WorkerFinished(id model.JobId)
}

// filenameFailureRe classifies a failure log blob as filesystem-name related.
var filenameFailureRe = regexp.MustCompile(`No such file|Invalid argument|cannot be written|WinError 123|Postprocessing: Error opening input files`)

// Run spawns the worker for job and drives it to a terminal outcome,
// reporting every transition to sink. It always sends exactly one
// WorkerFinished before returning.
func Run(ctx context.Context, job model.QueuedJob, opts worker.Options, sink Sink, log zerolog.Logger) {
	defer sink.WorkerFinished(job.ID)
	runAttempt(ctx, job, opts, sink, log)
}

func runAttempt(ctx context.Context, job model.QueuedJob, opts worker.Options, sink Sink, log zerolog.Logger) {
	if err := os.MkdirAll(opts.StagingDir, 0755); err != nil {
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.Run", apperr.ErrStagingUnavailable, err.Error()))
		return
	}

	args := worker.BuildDownloadArgs(job, opts)
	cmd := exec.CommandContext(ctx, opts.WorkerPath, args...)
	cmd.Dir = opts.StagingDir
	cmd.Env = append(os.Environ(),
		"PATH="+filepath.Dir(opts.WorkerPath)+string(os.PathListSeparator)+os.Getenv("PATH"),
		"PYTHONIOENCODING=UTF-8",
	)
	worker.SetSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.Run", apperr.ErrSpawnFailed, err.Error()))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.Run", apperr.ErrSpawnFailed, err.Error()))
		return
	}

	if err := cmd.Start(); err != nil {
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.Run", apperr.ErrSpawnFailed, err.Error()))
		return
	}

	sink.ProcessStarted(job.ID, cmd.Process.Pid)
	sink.UpdateProgress(job.ID, progress.Update{Phase: progress.PhaseInitializing, Percentage: 0})

	lines := make(chan string, 256)
	var printed lineRecorder

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() { defer pumps.Done(); pump(stdout, lines, &printed) }()
	go func() { defer pumps.Done(); pump(stderr, lines, nil) }()
	go func() { pumps.Wait(); close(lines) }()

	ring := newRingBuffer(ringBufferSize)
	state := &progress.State{}
	networkReleased := false

	for line := range lines {
		ring.add(line)
		_, update := progress.Feed(state, line)
		if update != nil {
			sink.UpdateProgress(job.ID, *update)
			if !networkReleased && isPostProcessingPhase(update.Phase) {
				networkReleased = true
				sink.NetworkSlotReleased(job.ID)
			}
		}
	}
	lastPrintedFilename := printed.last()

	exitErr := cmd.Wait()

	if ctx.Err() != nil {
		sink.JobError(job.ID, apperr.ErrCancelled)
		return
	}

	if exitErr == nil {
		finishSuccess(job, opts, state, lastPrintedFilename, sink, log)
		return
	}

	logs := ring.join()
	isFilenameFailure := filenameFailureRe.MatchString(logs)
	if !job.RestrictFilenames && isFilenameFailure {
		log.Info().Str("job", job.ID.String()).Msg("retrying with restrict_filenames after filesystem name failure")
		retryJob := job
		retryJob.RestrictFilenames = true
		runAttempt(ctx, retryJob, opts, sink, log)
		return
	}

	failureErr := apperr.ErrWorkerFailed
	if isFilenameFailure {
		failureErr = apperr.ErrFilesystemNameFailure
	}
	sink.JobError(job.ID, apperr.NewWithMessage("supervisor.Run", failureErr,
		fmt.Sprintf("exit status: %v; last logs: %s", exitErr, logs)))
}

func finishSuccess(job model.QueuedJob, opts worker.Options, state *progress.State, printedFilename string, sink Sink, log zerolog.Logger) {
	filename := state.FinalFilename
	if filename == "" {
		filename = printedFilename
	}
	if filename == "" {
		sink.JobError(job.ID, apperr.New("supervisor.finishSuccess", apperr.ErrOutputMissing))
		return
	}

	stagingPath := filepath.Join(opts.StagingDir, filename)
	if _, err := os.Stat(stagingPath); err != nil {
		sink.JobError(job.ID, apperr.New("supervisor.finishSuccess", apperr.ErrOutputMissing))
		return
	}

	destDir := job.DestinationDir
	if destDir == "" {
		destDir = opts.StagingDir
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.finishSuccess", apperr.ErrMoveFailed, err.Error()))
		return
	}

	destPath := filepath.Join(destDir, filepath.Base(filename))
	if err := moveFile(stagingPath, destPath); err != nil {
		log.Error().Err(err).Str("job", job.ID.String()).Msg("move to destination failed")
		sink.JobError(job.ID, apperr.NewWithMessage("supervisor.finishSuccess", apperr.ErrMoveFailed, err.Error()))
		return
	}

	sink.JobCompleted(job.ID, destPath)
}

// moveFile tries an atomic rename first, falling back to copy-then-delete
// when the move crosses a filesystem boundary.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()

	return os.Remove(src)
}

func isPostProcessingPhase(phase string) bool {
	switch phase {
	case progress.PhaseMerging, progress.PhaseExtracting, progress.PhaseWritingMeta, progress.PhaseEmbedThumb, progress.PhaseFixing:
		return true
	default:
		return false
	}
}

// lineRecorder tracks the last non-empty line read from a pipe that does
// not start with "[" or "{" (worker status and JSON progress lines), used to
// recover --print filename's output when the progress template never
// reported a filename.
type lineRecorder struct {
	value string
}

func (r *lineRecorder) record(line string) {
	if r == nil {
		return
	}
	trimmed := strings.TrimSpace(line)
	if trimmed != "" && !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		r.value = trimmed
	}
}

func (r *lineRecorder) last() string {
	if r == nil {
		return ""
	}
	return r.value
}

func pump(r io.Reader, out chan<- string, rec *lineRecorder) {
	scanner := bufio.NewScanner(r)
	scanner.Split(splitCRLF)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		rec.record(line)
		out <- line
	}
}

// splitCRLF breaks on \r or \n, matching the worker's carriage-return
// heavy progress output.
func splitCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[0:i], nil
		}
		return i + 1, data[0:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ringBuffer keeps the last n lines of captured output for diagnostics.
type ringBuffer struct {
	lines []string
	max   int
}

func newRingBuffer(max int) *ringBuffer {
	return &ringBuffer{max: max}
}

func (r *ringBuffer) add(line string) {
	if line == "" {
		return
	}
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

func (r *ringBuffer) join() string {
	return strings.Join(r.lines, "\n")
}
