// Package constants defines application-wide constants referenced by
// more than one package.
package constants

const (
	AppName    = "multiyt-dlp"
	AppID      = "com.multiytdlp.app"
	AppVersion = "0.1.0"
)

// Default concurrency caps, used when no config file is present yet.
const (
	DefaultMaxConcurrentDownloads = 3
	DefaultMaxTotalInstances      = 5
)

// MaxFilenameLength is the trim length applied on the filename-failure retry.
const MaxFilenameLength = 200

// CapturedLogLines is the size of the per-job output ring buffer.
const CapturedLogLines = 100

// BatchProgressIntervalMillis is the coalescing tick for UI progress events.
const BatchProgressIntervalMillis = 200

// Format presets accepted by start_download.
var FormatPresets = []string{
	"best", "best_mp4", "best_mkv", "best_webm",
	"audio_best", "audio_mp3", "audio_flac", "audio_m4a",
}
