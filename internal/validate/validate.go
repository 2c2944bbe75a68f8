// Package validate provides input validation for the Command Facade. All
// public-facing inputs are validated before a job is created.
package validate

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"multiytdlp/internal/apperr"
)

// filenameUnsafeChars matches characters not allowed in filenames.
var filenameUnsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

const defaultFilenameTemplate = "%(title)s.%(ext)s"

// URL validates that rawURL begins with http:// or https:// and has a host.
func URL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrValidationFailed, "url must not be empty")
	}

	rawURL = strings.TrimSpace(rawURL)

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrValidationFailed, "url must begin with http:// or https://")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrValidationFailed, "malformed url")
	}

	if parsed.Host == "" {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrValidationFailed, "url has no host")
	}

	return parsed, nil
}

// FilenameTemplate validates a yt-dlp output template. Empty returns the
// default; a template containing ".." or beginning with a path separator
// is rejected, since it is relative to the staging directory and must not
// escape it.
func FilenameTemplate(template string) (string, error) {
	if template == "" {
		return defaultFilenameTemplate, nil
	}

	if strings.Contains(template, "..") {
		return "", apperr.NewWithMessage("validate.FilenameTemplate", apperr.ErrValidationFailed, "filename template must not contain ..")
	}

	if strings.HasPrefix(template, "/") || strings.HasPrefix(template, "\\") {
		return "", apperr.NewWithMessage("validate.FilenameTemplate", apperr.ErrValidationFailed, "filename template must not be absolute")
	}

	return template, nil
}

// DirectoryPath validates a destination directory path, returning its
// cleaned absolute form. A missing directory is not an error — the caller
// may create it.
func DirectoryPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", apperr.Wrap("validate.DirectoryPath", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", apperr.Wrap("validate.DirectoryPath", err)
	}

	if !info.IsDir() {
		return "", apperr.NewWithMessage("validate.DirectoryPath", apperr.ErrValidationFailed, "path is not a directory")
	}

	return absPath, nil
}

// Filename sanitizes a filename to be safe for the filesystem.
func Filename(name string) string {
	if name == "" {
		return "untitled"
	}

	safe := filenameUnsafeChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, " .")

	if len(safe) > 200 {
		safe = safe[:200]
	}

	if safe == "" {
		return "untitled"
	}

	return safe
}
