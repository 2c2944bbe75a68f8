// Package progress implements the structured progress parser: a pure
// function mapping one worker output line plus the running per-attempt
// state to an updated state and an optional progress update.
package progress

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Phase labels a segment of a job's lifetime.
const (
	PhaseInitializing = "Initializing Process…"
	PhaseDownloading   = "Downloading"
	PhaseWritingMeta   = "Writing Metadata"
	PhaseEmbedThumb    = "Embedding Thumbnail"
	PhaseMerging       = "Merging Formats"
	PhaseExtracting    = "Extracting Audio"
	PhaseFixing        = "Fixing Container"
	PhaseFinished      = "Finished"
)

// postProcessingPhases latch once entered: subsequent JSON frames never
// reset the phase back to Downloading.
var postProcessingPhases = map[string]bool{
	PhaseMerging:     true,
	PhaseExtracting:  true,
	PhaseWritingMeta: true,
	PhaseEmbedThumb:  true,
	PhaseFixing:      true,
}

// cleanTitleSuffix strips the worker's standard
// " [<11-char id>].[fNNN.]ext" suffix from a filename.
var cleanTitleSuffix = regexp.MustCompile(`\s\[[A-Za-z0-9_-]{11}\](\.f\d+)?\.[A-Za-z0-9]+$`)

var (
	metadataRe  = regexp.MustCompile(`^\[Metadata\]\s+Adding metadata to:\s*(.+)$`)
	thumbnailRe = regexp.MustCompile(`^\[(Thumbnails|EmbedThumbnail)\]`)
	mergerRe    = regexp.MustCompile(`^\[Merger\]\s+Merging formats into\s+"(.+)"$`)
	extractRe   = regexp.MustCompile(`^\[ExtractAudio\]\s+Destination:\s*(.+)$`)
	fixupRe     = regexp.MustCompile(`^\[Fixup`)
	alreadyRe   = regexp.MustCompile(`^\[download\]\s+(.+)\s+has already been downloaded$`)
	destRe      = regexp.MustCompile(`^\[download\]\s+Destination:\s*(.+)$`)
	legacyRe    = regexp.MustCompile(`^\[download\]\s+([\d.]+)%\s+of\s+~?\s*([\d.]+\w+)\s+at\s+([\d.]+\w+/s|N/A|Unknown\s+\w*)\s+ETA\s+([\d:]+|N/A|Unknown)`)
)

// jsonFrame is the shape of a `download:%(progress)j` template line.
type jsonFrame struct {
	DownloadedBytes     *float64 `json:"downloaded_bytes"`
	TotalBytes          *float64 `json:"total_bytes"`
	TotalBytesEstimate  *float64 `json:"total_bytes_estimate"`
	Speed               *float64 `json:"speed"`
	ETA                 *float64 `json:"eta"`
	Filename            string   `json:"filename"`
}

// State is the per-attempt parser state. Zero value is ready to use.
type State struct {
	CleanTitle     string
	FinalFilename  string
	Percentage     float64
	Phase          string
	SpeedText      string
	ETAText        string
	titleDerived   bool
}

// Update is the optional progress event a line produces.
type Update struct {
	Percentage float64
	SpeedText  string
	ETAText    string
	Filename   string
	Phase      string
}

// snapshot builds an Update from the current state.
func (s *State) snapshot() Update {
	return Update{
		Percentage: s.Percentage,
		SpeedText:  s.SpeedText,
		ETAText:    s.ETAText,
		Filename:   s.FinalFilename,
		Phase:      s.Phase,
	}
}

func (s *State) setPhase(phase string) {
	if postProcessingPhases[s.Phase] && !postProcessingPhases[phase] {
		return
	}
	s.Phase = phase
}

func (s *State) setFilename(name string) {
	s.FinalFilename = name
	if !s.titleDerived {
		s.CleanTitle = deriveCleanTitle(name)
		s.titleDerived = true
	}
}

// deriveCleanTitle strips the worker's id/format-code suffix from a filename.
func deriveCleanTitle(filename string) string {
	stripped := cleanTitleSuffix.ReplaceAllString(filename, "")
	return strings.TrimRight(stripped, ". ")
}

// Feed processes one line of worker output against the current state,
// returning the (possibly unmodified) state and an update if the line
// produced one.
func Feed(s *State, line string) (*State, *Update) {
	line = strings.TrimSpace(line)
	if line == "" {
		return s, nil
	}

	if u := feedJSON(s, line); u != nil {
		return s, u
	}
	if u := feedPhaseMarker(s, line); u != nil {
		return s, u
	}
	if u := feedLegacyText(s, line); u != nil {
		return s, u
	}
	return s, nil
}

func feedJSON(s *State, line string) *Update {
	if !strings.HasPrefix(line, "{") {
		return nil
	}
	var frame jsonFrame
	if err := json.Unmarshal([]byte(line), &frame); err != nil {
		return nil
	}

	total := frame.TotalBytes
	if total == nil {
		total = frame.TotalBytesEstimate
	}
	if frame.DownloadedBytes != nil && total != nil && *total > 0 {
		s.Percentage = (*frame.DownloadedBytes / *total) * 100
	}
	if frame.Speed != nil {
		s.SpeedText = formatSpeed(*frame.Speed)
	}
	if frame.ETA != nil {
		s.ETAText = formatETA(*frame.ETA)
	}
	if frame.Filename != "" {
		s.setFilename(frame.Filename)
	}
	s.setPhase(PhaseDownloading)

	u := s.snapshot()
	return &u
}

func feedPhaseMarker(s *State, line string) *Update {
	switch {
	case metadataRe.MatchString(line):
		s.setPhase(PhaseWritingMeta)
		s.Percentage = clampMin(s.Percentage, 99)
	case thumbnailRe.MatchString(line):
		s.setPhase(PhaseEmbedThumb)
		s.Percentage = clampMin(s.Percentage, 99)
	case mergerRe.MatchString(line):
		m := mergerRe.FindStringSubmatch(line)
		s.setFilename(m[1])
		s.setPhase(PhaseMerging)
		s.Percentage = 100
		s.ETAText = "Done"
	case extractRe.MatchString(line):
		m := extractRe.FindStringSubmatch(line)
		s.setFilename(strings.TrimSpace(m[1]))
		s.setPhase(PhaseExtracting)
		s.Percentage = 100
	case fixupRe.MatchString(line):
		s.setPhase(PhaseFixing)
	case alreadyRe.MatchString(line):
		m := alreadyRe.FindStringSubmatch(line)
		s.setFilename(strings.TrimSpace(m[1]))
		s.setPhase(PhaseFinished)
		s.Percentage = 100
	case destRe.MatchString(line):
		m := destRe.FindStringSubmatch(line)
		s.setFilename(strings.TrimSpace(m[1]))
		s.setPhase(PhaseDownloading)
	default:
		return nil
	}

	u := s.snapshot()
	return &u
}

func feedLegacyText(s *State, line string) *Update {
	m := legacyRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	s.Percentage = pct

	speed := m[3]
	if speed != "N/A" && !strings.HasPrefix(speed, "Unknown") {
		s.SpeedText = speed
	}

	eta := m[4]
	if eta != "N/A" && eta != "Unknown" {
		s.ETAText = eta
	}

	s.setPhase(PhaseDownloading)

	u := s.snapshot()
	return &u
}

func clampMin(current, floor float64) float64 {
	if current < floor {
		return floor
	}
	return current
}

// formatSpeed renders bytes/sec as B, KiB, MiB or GiB per second.
func formatSpeed(bytesPerSec float64) string {
	const unit = 1024.0
	switch {
	case bytesPerSec >= unit*unit*unit:
		return fmt.Sprintf("%.2f GiB/s", bytesPerSec/(unit*unit*unit))
	case bytesPerSec >= unit*unit:
		return fmt.Sprintf("%.2f MiB/s", bytesPerSec/(unit*unit))
	case bytesPerSec >= unit:
		return fmt.Sprintf("%.2f KiB/s", bytesPerSec/unit)
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}

// formatETA renders a duration in seconds as HH:MM:SS or MM:SS.
func formatETA(seconds float64) string {
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
