package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"multiytdlp/internal/apperr"
	"multiytdlp/internal/apppaths"
	"multiytdlp/internal/config"
	"multiytdlp/internal/constants"
	"multiytdlp/internal/events"
	"multiytdlp/internal/history"
	"multiytdlp/internal/indicator"
	"multiytdlp/internal/jobstore"
	"multiytdlp/internal/logger"
	"multiytdlp/internal/model"
	"multiytdlp/internal/orchestrator"
	"multiytdlp/internal/playlist"
	"multiytdlp/internal/ratelimit"
	"multiytdlp/internal/thumbnail"
	"multiytdlp/internal/validate"
	"multiytdlp/internal/worker"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// Version is set at build time via ldflags, or read from the embedded VERSION file.
var Version string

// DependencyChecker is a named interface for the external bootstrap/update
// collaborator described in DESIGN.md. Dependency bootstrap is out of
// scope here; this exists so a future implementation has a clear seam.
type DependencyChecker interface {
	CheckDependencies() error
}

// App is the Facade that exposes methods to the Frontend. Every method is
// thin: validate input, delegate to a collaborator, return its result.
type App struct {
	ctx context.Context

	paths *apppaths.Paths
	cfg   *config.Config

	orch      *orchestrator.Handle
	thumbs    *thumbnail.Cache
	history   *history.Store
	indicator indicator.Indicator
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{}
}

// ServiceStartup is called when the app starts (Wails v3 lifecycle).
func (a *App) ServiceStartup(ctx context.Context, options application.ServiceOptions) error {
	a.ctx = ctx

	paths, err := apppaths.Get()
	if err != nil {
		fmt.Printf("warning: failed to resolve app paths: %v\n", err)
		return err
	}
	a.paths = paths

	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("warning: failed to create directories: %v\n", err)
		return err
	}

	if err := logger.Init(paths.Root); err != nil {
		fmt.Printf("warning: failed to initialize logger: %v\n", err)
	}

	cfg, err := config.Load(paths.Root)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to load config, using defaults")
		cfg = config.Default()
	}
	a.cfg = cfg

	logger.Log.Info().
		Str("version", Version).
		Str("workerPath", paths.WorkerPath()).
		Str("staging", paths.Staging()).
		Msg("multiyt-dlp starting up")

	a.history, err = history.Open(paths.Root)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to open history store, archiving disabled")
		a.history = nil
	}

	a.indicator = indicator.New(constants.AppID, "", logger.Log)
	a.thumbs = thumbnail.NewCache(filepath.Join(paths.Root, "thumbnails"))

	deps := orchestrator.Deps{
		Store:         jobstore.New(paths.Jobs()),
		Cfg:           cfg,
		WorkerPath:    paths.WorkerPath(),
		StagingDir:    paths.Staging(),
		FFmpegPath:    paths.FFmpegPath(),
		Aria2cPath:    paths.Aria2cPath(),
		JSRuntimePath: paths.JSRuntimePath(),
		Logger:        logger.Log,
		Indicator:     a.indicator,
	}
	if a.history != nil {
		deps.History = a.history
	}
	a.orch = orchestrator.NewHandle(deps)

	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "multiytdlp://") {
			logger.Log.Info().Str("url", arg).Msg("processing deep link from cold start")
			application.Get().Event.Emit("deep-link", arg)
			break
		}
	}

	pending, _ := a.orch.GetPendingCount()
	application.Get().Event.Emit(events.AppReady, map[string]interface{}{
		"pendingJobs": pending,
	})
	logger.Log.Info().Int("pendingJobs", pending).Msg("app:ready event emitted")

	return nil
}

// ServiceShutdown is called when the app shuts down (Wails v3 lifecycle).
func (a *App) ServiceShutdown() error {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("failed to close history store")
		}
	}
	logger.Log.Info().Msg("application shutdown complete")
	return nil
}

// ExpandPlaylist resolves url to its constituent entries (a single entry
// if url is not a playlist), fetching thumbnails best-effort.
func (a *App) ExpandPlaylist(url string) ([]model.PlaylistEntry, error) {
	if !ratelimit.ExpandPlaylistLimiter.Allow() {
		return nil, apperr.NewWithMessage("App.ExpandPlaylist", apperr.ErrValidationFailed, "too many requests, slow down")
	}

	parsed, err := validate.URL(url)
	if err != nil {
		return nil, err
	}

	opts := worker.Options{
		WorkerPath:    a.paths.WorkerPath(),
		StagingDir:    a.paths.Staging(),
		FFmpegPath:    a.paths.FFmpegPath(),
		Aria2cPath:    a.paths.Aria2cPath(),
		JSRuntimePath: a.paths.JSRuntimePath(),
	}

	entries, err := playlist.Expand(a.ctx, parsed.String(), opts)
	if err != nil {
		return nil, apperr.Wrap("App.ExpandPlaylist", err)
	}

	if a.thumbs != nil {
		for i, entry := range entries {
			if entry.Thumbnail == "" {
				continue
			}
			if cached, err := a.thumbs.Resolve(model.NewJobId(), entry.Thumbnail); err == nil {
				entries[i].Thumbnail = cached
			}
		}
	}

	return entries, nil
}

// DownloadRequest describes one URL to submit, mirroring model.QueuedJob
// but without an ID (assigned server-side).
type DownloadRequest struct {
	URL               string               `json:"url"`
	DestinationDir    string               `json:"destinationDir"`
	FormatPreset      model.FormatPreset   `json:"formatPreset"`
	VideoHeightCap    string               `json:"videoHeightCap"`
	EmbedMetadata     bool                 `json:"embedMetadata"`
	EmbedThumbnail    bool                 `json:"embedThumbnail"`
	FilenameTemplate  string               `json:"filenameTemplate"`
	RestrictFilenames bool                 `json:"restrictFilenames"`
	Cookies           model.CookieStrategy `json:"cookies"`
	Thumbnail         string               `json:"thumbnail"`
}

// StartDownload validates each request (a playlist expansion submits many
// at once, sharing destination/format settings) and submits the valid
// ones to the Orchestrator, returning the JobIds of the accepted requests
// in request order. A request that fails validation or submission is
// skipped and gets no JobId; errors are returned only when no request was
// accepted (then the first one is returned), so the caller gets partial
// progress rather than an all-or-nothing failure.
func (a *App) StartDownload(reqs []DownloadRequest) ([]model.JobId, error) {
	if !ratelimit.StartDownloadLimiter.AllowN(float64(len(reqs))) {
		return nil, apperr.NewWithMessage("App.StartDownload", apperr.ErrValidationFailed, "too many requests, slow down")
	}

	ids := make([]model.JobId, 0, len(reqs))
	var firstErr error

	for _, req := range reqs {
		job, err := a.buildQueuedJob(req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := a.orch.AddJob(job); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ids = append(ids, job.ID)
	}

	if len(ids) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return ids, nil
}

func (a *App) buildQueuedJob(req DownloadRequest) (model.QueuedJob, error) {
	parsedURL, err := validate.URL(req.URL)
	if err != nil {
		return model.QueuedJob{}, err
	}

	template, err := validate.FilenameTemplate(req.FilenameTemplate)
	if err != nil {
		return model.QueuedJob{}, err
	}

	destDir, err := validate.DirectoryPath(req.DestinationDir)
	if err != nil {
		return model.QueuedJob{}, err
	}

	if !validFormatPreset(req.FormatPreset) {
		return model.QueuedJob{}, apperr.NewWithMessage("App.StartDownload", apperr.ErrValidationFailed, "unknown format preset")
	}

	return model.QueuedJob{
		ID:                model.NewJobId(),
		URL:               parsedURL.String(),
		DestinationDir:    destDir,
		FormatPreset:      req.FormatPreset,
		VideoHeightCap:    req.VideoHeightCap,
		EmbedMetadata:     req.EmbedMetadata,
		EmbedThumbnail:    req.EmbedThumbnail,
		FilenameTemplate:  template,
		RestrictFilenames: req.RestrictFilenames,
		Cookies:           req.Cookies,
		Thumbnail:         req.Thumbnail,
	}, nil
}

// CancelDownload requests cancellation of a job by id. Idempotent: no
// error is returned for an unknown or already-terminal job.
func (a *App) CancelDownload(id model.JobId) error {
	return a.orch.CancelJob(id)
}

// GetJob returns the current runtime state of a job, if known.
func (a *App) GetJob(id model.JobId) (model.Job, bool) {
	return a.orch.GetJob(id)
}

// ListJobs returns the runtime state of every job the Orchestrator knows
// about, in no particular order.
func (a *App) ListJobs() []model.Job {
	return a.orch.ListJobs()
}

// GetPendingCount returns the number of job descriptors currently in the
// persistence file: jobs not yet Completed or user-Cancelled, whether left
// from a prior session or queued in this one.
func (a *App) GetPendingCount() (int, error) {
	return a.orch.GetPendingCount()
}

// ResumePendingJobs re-enqueues every job persisted from a prior session
// and returns what was resumed.
func (a *App) ResumePendingJobs() ([]model.QueuedJob, error) {
	return a.orch.ResumePending()
}

// ClearPendingJobs discards every persisted job from a prior session
// without resuming them.
func (a *App) ClearPendingJobs() error {
	return a.orch.ClearPending()
}

// GetSettings returns a snapshot of the current configuration.
func (a *App) GetSettings() config.Settings {
	return a.cfg.Get()
}

// SaveSettings persists updated configuration. MaxConcurrentDownloads and
// MaxTotalInstances take effect on the next admission check; jobs already
// in flight are unaffected.
func (a *App) SaveSettings(updated config.Settings) error {
	if updated.MaxConcurrentDownloads < 1 {
		return apperr.NewWithMessage("App.SaveSettings", apperr.ErrValidationFailed, "maxConcurrentDownloads must be at least 1")
	}
	if updated.MaxTotalInstances < updated.MaxConcurrentDownloads {
		updated.MaxTotalInstances = updated.MaxConcurrentDownloads
	}

	a.cfg.Update(func(c *config.Config) {
		c.MaxConcurrentDownloads = updated.MaxConcurrentDownloads
		c.MaxTotalInstances = updated.MaxTotalInstances
		c.Cookies = updated.Cookies
		c.UseAria2c = updated.UseAria2c
		c.JSRuntimeOverride = updated.JSRuntimeOverride
	})

	return a.cfg.Save()
}

// GetHistory returns the most recent limit terminal jobs from the history
// archive (0 or negative limit returns all).
func (a *App) GetHistory(limit int) ([]history.Entry, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.List(limit)
}

// ClearHistory discards every archived history entry.
func (a *App) ClearHistory() error {
	if a.history == nil {
		return nil
	}
	return a.history.Clear()
}

// OpenURL opens a URL in the user's default browser.
func (a *App) OpenURL(url string) {
	application.Get().Browser.OpenURL(url)
}

// GetVersion returns the running application version.
func (a *App) GetVersion() string {
	return Version
}

// CheckDependencies reports whether the worker and ffmpeg binaries are
// present. Fetching/installing them is out of scope: this only reports
// presence so the frontend can prompt the user to install manually.
func (a *App) CheckDependencies() map[string]bool {
	return map[string]bool{
		"worker": fileIsExecutable(a.paths.WorkerPath()),
		"ffmpeg": fileIsExecutable(a.paths.FFmpegPath()),
		"aria2c": fileIsExecutable(a.paths.Aria2cPath()),
	}
}

func validFormatPreset(p model.FormatPreset) bool {
	for _, preset := range constants.FormatPresets {
		if string(p) == preset {
			return true
		}
	}
	return false
}

func fileIsExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
