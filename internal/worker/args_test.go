package worker_test

import (
	"strings"
	"testing"

	"multiytdlp/internal/model"
	"multiytdlp/internal/worker"
)

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestBuildDownloadArgs_BestMP4WithHeightCap(t *testing.T) {
	job := model.QueuedJob{
		URL:              "https://host/v",
		FormatPreset:     model.PresetBestMP4,
		VideoHeightCap:   "1080",
		FilenameTemplate: "%(title)s.%(ext)s",
	}

	args := worker.BuildDownloadArgs(job, worker.Options{})
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "bestvideo[height<=1080]+bestaudio") {
		t.Errorf("args missing height-capped selector: %v", args)
	}
	if !contains(args, "mp4") {
		t.Errorf("args missing mp4 merge container: %v", args)
	}
	if !contains(args, "--merge-output-format") {
		t.Errorf("args missing --merge-output-format: %v", args)
	}
}

func TestBuildDownloadArgs_AudioMP3(t *testing.T) {
	job := model.QueuedJob{
		URL:              "https://host/v",
		FormatPreset:     model.PresetAudioMP3,
		VideoHeightCap:   "best",
		FilenameTemplate: "%(title)s.%(ext)s",
	}

	args := worker.BuildDownloadArgs(job, worker.Options{})
	if !contains(args, "-x") || !contains(args, "mp3") {
		t.Errorf("expected audio extraction to mp3, got %v", args)
	}
}

func TestBuildDownloadArgs_ConditionalFlags(t *testing.T) {
	job := model.QueuedJob{
		URL:               "https://host/v",
		FormatPreset:      model.PresetBest,
		VideoHeightCap:    "best",
		FilenameTemplate:  "%(title)s.%(ext)s",
		EmbedMetadata:     true,
		EmbedThumbnail:    true,
		RestrictFilenames: true,
		Cookies:           model.CookieStrategy{FromBrowser: "firefox"},
	}

	args := worker.BuildDownloadArgs(job, worker.Options{})

	for _, want := range []string{"--embed-metadata", "--embed-thumbnail", "--restrict-filenames", "--cookies-from-browser", "firefox"} {
		if !contains(args, want) {
			t.Errorf("missing expected flag %q in %v", want, args)
		}
	}
}

func TestBuildPlaylistArgs(t *testing.T) {
	args := worker.BuildPlaylistArgs("https://host/list")
	if !contains(args, "--flat-playlist") || !contains(args, "--dump-single-json") {
		t.Errorf("playlist args missing flat-playlist/dump-single-json: %v", args)
	}
}
