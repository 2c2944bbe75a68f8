// Package apppaths resolves the on-disk layout rooted at ~/.multiyt-dlp:
// the persistence file, the staging directory, logs, and the worker
// binary's sidecar locations.
package apppaths

import (
	"os"
	"path/filepath"
	"runtime"
)

const rootDirName = ".multiyt-dlp"

// Paths holds all application directory paths.
type Paths struct {
	Root    string // ~/.multiyt-dlp
	Bin     string // ~/.multiyt-dlp/bin (downloaded sidecar fallback)
	ExeDir  string // directory containing the running executable, for bundled sidecars
}

// Get resolves the application paths for the current OS.
func Get() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	root := filepath.Join(homeDir, rootDirName)
	return &Paths{
		Root:   root,
		Bin:    filepath.Join(root, "bin"),
		ExeDir: filepath.Dir(exePath),
	}, nil
}

// EnsureDirectories creates the root, staging and log directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.Root, p.Bin, p.Staging(), p.Logs()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// Jobs returns the path to the persistence store's JSON file.
func (p *Paths) Jobs() string {
	return filepath.Join(p.Root, "jobs.json")
}

// Staging returns the process-private staging directory used as the
// worker's working directory.
func (p *Paths) Staging() string {
	return filepath.Join(p.Root, "temp_downloads")
}

// Logs returns the log directory.
func (p *Paths) Logs() string {
	return filepath.Join(p.Root, "logs")
}

// Settings returns the path to the configuration file.
func (p *Paths) Settings() string {
	return filepath.Join(p.Root, "settings.json")
}

// History returns the path to the SQLite history database.
func (p *Paths) History() string {
	return filepath.Join(p.Root, "history.db")
}

// getSidecarPaths returns all possible sidecar locations for the current
// OS, in priority order (first match wins). Sidecars are bundled binaries
// that ship alongside the installer; the downloaded fallback lives in Bin.
func (p *Paths) getSidecarPaths(binaryName string) []string {
	var paths []string

	switch runtime.GOOS {
	case "windows":
		paths = append(paths, filepath.Join(p.ExeDir, "bin", binaryName))
	case "darwin":
		resourcesDir := filepath.Join(p.ExeDir, "..", "Resources", "bin")
		paths = append(paths, filepath.Join(resourcesDir, binaryName))
		paths = append(paths, filepath.Join(p.ExeDir, binaryName))
	default:
		paths = append(paths, filepath.Join(p.ExeDir, binaryName))
		paths = append(paths, filepath.Join(p.ExeDir, "bin", binaryName))
	}

	return paths
}

func (p *Paths) getBinaryPath(binaryName string) string {
	for _, sidecarPath := range p.getSidecarPaths(binaryName) {
		if fileExists(sidecarPath) {
			return sidecarPath
		}
	}
	return filepath.Join(p.Bin, binaryName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// WorkerPath returns the path to the worker binary.
func (p *Paths) WorkerPath() string {
	if runtime.GOOS == "windows" {
		return p.getBinaryPath("yt-dlp.exe")
	}
	return p.getBinaryPath("yt-dlp")
}

// FFmpegPath returns the path to ffmpeg, used by the worker for merge/extract steps.
func (p *Paths) FFmpegPath() string {
	if runtime.GOOS == "windows" {
		return p.getBinaryPath("ffmpeg.exe")
	}
	return p.getBinaryPath("ffmpeg")
}

// Aria2cPath returns the path to the optional aria2c downloader.
func (p *Paths) Aria2cPath() string {
	if runtime.GOOS == "windows" {
		return p.getBinaryPath("aria2c.exe")
	}
	return p.getBinaryPath("aria2c")
}

// JSRuntimePath returns the path to a bundled JS runtime override, used by
// the worker for sites requiring JS challenge solving. Empty if none is bundled.
func (p *Paths) JSRuntimePath() string {
	name := "deno"
	if runtime.GOOS == "windows" {
		name = "deno.exe"
	}
	for _, candidate := range p.getSidecarPaths(name) {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}
