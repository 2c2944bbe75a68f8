package playlist

import "testing"

func TestParseDumpOutput_PlaylistEntries(t *testing.T) {
	data := []byte(`{
		"entries": [
			{"id": "abc", "url": "https://host/abc", "title": "First"},
			{"id": "def", "webpage_url": "https://host/def", "title": "Second"}
		]
	}`)

	entries, err := parseDumpOutput(data, "https://host/list")
	if err != nil {
		t.Fatalf("parseDumpOutput: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].URL != "https://host/abc" || entries[1].URL != "https://host/def" {
		t.Errorf("unexpected urls: %+v", entries)
	}
}

func TestParseDumpOutput_SingleVideoFallsBackToInputURL(t *testing.T) {
	data := []byte(`{"id": "xyz", "title": "Solo Video"}`)

	entries, err := parseDumpOutput(data, "https://host/solo")
	if err != nil {
		t.Fatalf("parseDumpOutput: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].URL != "https://host/solo" {
		t.Errorf("url = %q, want fallback", entries[0].URL)
	}
	if entries[0].Title != "Solo Video" {
		t.Errorf("title = %q", entries[0].Title)
	}
}

func TestParseDumpOutput_SingleVideoPrefersWebpageURL(t *testing.T) {
	data := []byte(`{"id": "xyz", "webpage_url": "https://host/canonical", "title": "Solo"}`)

	entries, err := parseDumpOutput(data, "https://host/solo")
	if err != nil {
		t.Fatalf("parseDumpOutput: %v", err)
	}
	if entries[0].URL != "https://host/canonical" {
		t.Errorf("url = %q, want canonical webpage_url", entries[0].URL)
	}
}

func TestParseDumpOutput_SkipsEntriesWithNoURL(t *testing.T) {
	data := []byte(`{"entries": [{"id": "a"}, {"id": "b", "url": "https://host/b"}]}`)

	entries, err := parseDumpOutput(data, "https://host/list")
	if err != nil {
		t.Fatalf("parseDumpOutput: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "b" {
		t.Errorf("got %+v, want single entry b", entries)
	}
}

func TestParseDumpOutput_InvalidJSON(t *testing.T) {
	_, err := parseDumpOutput([]byte("not json"), "https://host/x")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
