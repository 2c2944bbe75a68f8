// Package playlist implements the Playlist Expander: a blocking probe
// that invokes the worker in flat-playlist mode and maps its JSON output
// into one or more PlaylistEntry records.
package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"multiytdlp/internal/model"
	"multiytdlp/internal/worker"
)

// dumpResult is the shape of a --flat-playlist --dump-single-json probe:
// either a playlist with entries, or a single video's own fields.
type dumpResult struct {
	Entries    []entryOrVideo `json:"entries"`
	WebpageURL string         `json:"webpage_url"`
	URL        string         `json:"url"`
	Title      string         `json:"title"`
	ID         string         `json:"id"`
	Thumbnail  string         `json:"thumbnail"`
}

type entryOrVideo struct {
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
	Title      string `json:"title"`
	ID         string `json:"id"`
	Thumbnail  string `json:"thumbnail"`
}

// Expand invokes the worker against url and returns every entry it names.
// A non-playlist URL yields a single-element list.
func Expand(ctx context.Context, url string, opts worker.Options) ([]model.PlaylistEntry, error) {
	args := worker.BuildPlaylistArgs(url)
	cmd := exec.CommandContext(ctx, opts.WorkerPath, args...)
	worker.SetSysProcAttr(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrText := strings.TrimSpace(stderr.String())
		if stderrText != "" {
			return nil, fmt.Errorf("playlist probe failed (%v): %s", err, stderrText)
		}
		return nil, fmt.Errorf("playlist probe failed: %w", err)
	}

	return parseDumpOutput(stdout.Bytes(), url)
}

// parseDumpOutput maps a --dump-single-json payload into one or more
// entries. fallbackURL is used when a single-video payload lacks a
// webpage_url (the probe's own input URL).
func parseDumpOutput(data []byte, fallbackURL string) ([]model.PlaylistEntry, error) {
	var result dumpResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse playlist output: %w", err)
	}

	if len(result.Entries) > 0 {
		entries := make([]model.PlaylistEntry, 0, len(result.Entries))
		for _, e := range result.Entries {
			entryURL := e.URL
			if entryURL == "" {
				entryURL = e.WebpageURL
			}
			if entryURL == "" {
				continue
			}
			entries = append(entries, model.PlaylistEntry{
				ID:        e.ID,
				URL:       entryURL,
				Title:     e.Title,
				Thumbnail: e.Thumbnail,
			})
		}
		return entries, nil
	}

	singleURL := result.WebpageURL
	if singleURL == "" {
		singleURL = fallbackURL
	}
	return []model.PlaylistEntry{{
		ID:        result.ID,
		URL:       singleURL,
		Title:     result.Title,
		Thumbnail: result.Thumbnail,
	}}, nil
}
