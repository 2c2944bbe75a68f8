package jobstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"multiytdlp/internal/jobstore"
	"multiytdlp/internal/model"
)

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	s := jobstore.New(filepath.Join(dir, "jobs.json"))

	jobs, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("Load() = %v, want empty", jobs)
	}
}

func TestLoad_CorruptFileLeftInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	os.WriteFile(path, []byte("not json{{{"), 0644)

	s := jobstore.New(path)
	jobs, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("Load() = %v, want empty for corrupt file", jobs)
	}

	if _, statErr := os.Stat(path); statErr != nil {
		t.Error("corrupt file should be left in place")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	s := jobstore.New(path)

	want := []model.QueuedJob{
		{ID: model.NewJobId(), URL: "https://host/a", FormatPreset: model.PresetBest, VideoHeightCap: "best"},
		{ID: model.NewJobId(), URL: "https://host/b", FormatPreset: model.PresetAudioMP3, VideoHeightCap: "best"},
	}

	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d jobs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].URL != want[i].URL {
			t.Errorf("job %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	s := jobstore.New(path)

	s.Save([]model.QueuedJob{{ID: model.NewJobId(), URL: "https://host/a"}})

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("jobs.json should be removed after Clear()")
	}

	// Clear on an already-missing file is not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("Clear() on missing file error = %v, want nil", err)
	}
}
