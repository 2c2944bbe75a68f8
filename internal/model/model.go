// Package model defines the data shared between the orchestrator,
// supervisor, playlist expander, and facade: job identifiers, the durable
// queued-job descriptor, runtime job state, and playlist entries.
package model

import "github.com/google/uuid"

// JobId is an opaque identifier, unique per submission.
type JobId = uuid.UUID

// NewJobId generates a new JobId.
func NewJobId() JobId {
	return uuid.New()
}

// FormatPreset enumerates the supported output presets.
type FormatPreset string

const (
	PresetBest      FormatPreset = "best"
	PresetBestMP4   FormatPreset = "best_mp4"
	PresetBestMKV   FormatPreset = "best_mkv"
	PresetBestWebM  FormatPreset = "best_webm"
	PresetAudioBest FormatPreset = "audio_best"
	PresetAudioMP3  FormatPreset = "audio_mp3"
	PresetAudioFLAC FormatPreset = "audio_flac"
	PresetAudioM4A  FormatPreset = "audio_m4a"
)

// CookieStrategy selects how the worker authenticates to a site, if at all.
type CookieStrategy struct {
	FromBrowser string `json:"fromBrowser,omitempty"`
	FilePath    string `json:"filePath,omitempty"`
}

// QueuedJob is the durable descriptor persisted to disk and cloned by
// value into Supervisor tasks. It is exclusively owned by the Orchestrator
// after being enqueued.
type QueuedJob struct {
	ID                JobId          `json:"id"`
	URL               string         `json:"url"`
	DestinationDir    string         `json:"destinationDir,omitempty"`
	FormatPreset      FormatPreset   `json:"formatPreset"`
	VideoHeightCap    string         `json:"videoHeightCap"` // "best" or a numeric string e.g. "1080"
	EmbedMetadata     bool           `json:"embedMetadata"`
	EmbedThumbnail    bool           `json:"embedThumbnail"`
	FilenameTemplate  string         `json:"filenameTemplate"`
	RestrictFilenames bool           `json:"restrictFilenames"`
	Cookies           CookieStrategy `json:"cookies,omitempty"`
	Thumbnail         string         `json:"thumbnail,omitempty"`
}

// Status is the runtime lifecycle state of a Job.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusDownloading Status = "Downloading"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
	StatusError       Status = "Error"
)

// IsTerminal reports whether s is one of the terminal statuses.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// Job is the runtime state of a submitted job.
type Job struct {
	ID         JobId  `json:"id"`
	URL        string `json:"url"`
	Pid        int    `json:"pid,omitempty"` // 0 means unknown
	Status     Status `json:"status"`
	Progress   float64 `json:"progress"` // [0.0, 100.0]
	OutputPath string `json:"outputPath,omitempty"`
	ErrorMsg   string `json:"errorMsg,omitempty"`
}

// HasPid reports whether the job has a known worker PID.
func (j *Job) HasPid() bool {
	return j.Pid != 0
}

// PlaylistEntry is one item returned by the Playlist Expander.
type PlaylistEntry struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ProgressUpdate is the latest-known progress snapshot for one job,
// buffered by the Orchestrator between batched emission ticks.
type ProgressUpdate struct {
	JobId      JobId   `json:"jobId"`
	Percentage float64 `json:"percentage"`
	Speed      string  `json:"speed,omitempty"`
	ETA        string  `json:"eta,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Phase      string  `json:"phase,omitempty"`
}
