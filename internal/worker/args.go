// Package worker builds the external worker binary's command line and
// isolates the platform-specific spawn attributes shared by the Process
// Supervisor and the Playlist Expander.
package worker

import (
	"fmt"
	"strconv"

	"multiytdlp/internal/model"
)

// Options are the general-config knobs that affect every invocation.
type Options struct {
	WorkerPath    string
	StagingDir    string
	FFmpegPath    string
	Aria2cPath    string
	UseAria2c     bool
	JSRuntimePath string
}

// BuildDownloadArgs assembles the argument list for a single-job download
// invocation of job, rooted at opts.StagingDir.
func BuildDownloadArgs(job model.QueuedJob, opts Options) []string {
	args := []string{
		job.URL,
		"-o", job.FilenameTemplate,
		"--no-playlist",
		"--newline",
		"--progress-template", "download:%(progress)j",
		"--windows-filenames",
		"--encoding", "utf-8",
	}

	args = append(args, formatArgs(job.FormatPreset, job.VideoHeightCap)...)

	if job.EmbedMetadata {
		args = append(args, "--embed-metadata")
	}
	if job.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if job.RestrictFilenames {
		args = append(args, "--restrict-filenames", "--trim-filenames", "200")
	}

	switch {
	case job.Cookies.FromBrowser != "":
		args = append(args, "--cookies-from-browser", job.Cookies.FromBrowser)
	case job.Cookies.FilePath != "":
		args = append(args, "--cookies", job.Cookies.FilePath)
	}

	if opts.JSRuntimePath != "" {
		args = append(args, "--extractor-args", "youtube:jsi_dir="+opts.JSRuntimePath)
	}
	if opts.UseAria2c && opts.Aria2cPath != "" {
		args = append(args, "--downloader", "aria2c", "--downloader-args", "aria2c:-x16 -s16")
	}
	if opts.FFmpegPath != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegPath)
	}

	args = append(args, "--print", "filename")

	return args
}

// formatArgs derives the format-selection flags from a preset and an
// optional video height cap ("best" or a numeric string).
func formatArgs(preset model.FormatPreset, heightCap string) []string {
	height := ""
	if heightCap != "" && heightCap != "best" {
		if _, err := strconv.Atoi(heightCap); err == nil {
			height = heightCap
		}
	}

	videoSelector := func(container string) []string {
		selector := "bestvideo+bestaudio"
		if height != "" {
			selector = fmt.Sprintf("bestvideo[height<=%s]+bestaudio", height)
		}
		args := []string{"-f", selector}
		if container != "" {
			args = append(args, "--merge-output-format", container)
		}
		return args
	}

	switch preset {
	case model.PresetBestMP4:
		return videoSelector("mp4")
	case model.PresetBestMKV:
		return videoSelector("mkv")
	case model.PresetBestWebM:
		return videoSelector("webm")
	case model.PresetAudioBest:
		return []string{"-x"}
	case model.PresetAudioMP3:
		return []string{"-x", "--audio-format", "mp3"}
	case model.PresetAudioFLAC:
		return []string{"-x", "--audio-format", "flac"}
	case model.PresetAudioM4A:
		return []string{"-x", "--audio-format", "m4a"}
	default: // model.PresetBest
		return videoSelector("")
	}
}

// BuildPlaylistArgs assembles the argument list for a flat-playlist probe.
func BuildPlaylistArgs(url string) []string {
	return []string{
		url,
		"--flat-playlist",
		"--dump-single-json",
		"--no-warnings",
	}
}
