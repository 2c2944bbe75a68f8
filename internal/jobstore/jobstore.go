// Package jobstore implements the Persistence Store: a single JSON file
// holding the array of QueuedJob descriptors not yet Completed or
// user-Cancelled. Reads happen only on explicit request (pending count or
// resume); writes are
// dispatched by the caller to a background goroutine so the orchestrator
// never blocks on disk.
package jobstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"multiytdlp/internal/model"
)

// Store reads and writes the jobs.json file at Path.
type Store struct {
	Path string
}

// New returns a Store rooted at the given jobs.json path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persistence file. A missing file yields an empty list
// with no error. An unparsable file also yields an empty list — the
// corrupt file is left in place for the user to inspect.
func (s *Store) Load() ([]model.QueuedJob, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var jobs []model.QueuedJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, nil
	}

	return jobs, nil
}

// Save serializes jobs and writes them to the persistence file,
// overwriting any prior contents.
func (s *Store) Save(jobs []model.QueuedJob) error {
	if jobs == nil {
		jobs = []model.QueuedJob{}
	}

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}

	return os.WriteFile(s.Path, data, 0644)
}

// Clear removes the persistence file. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
