package progress

import "testing"

func TestFeed_JSONFrame(t *testing.T) {
	s := &State{}
	line := `{"downloaded_bytes":500,"total_bytes":1000,"speed":5242880,"eta":125,"filename":"Foo. [abcdefghijk].f137.mp4"}`

	_, u := Feed(s, line)
	if u == nil {
		t.Fatal("expected an update")
	}
	if u.Percentage != 50.0 {
		t.Errorf("Percentage = %v, want 50.0", u.Percentage)
	}
	if u.SpeedText != "5.00 MiB/s" {
		t.Errorf("SpeedText = %q, want %q", u.SpeedText, "5.00 MiB/s")
	}
	if u.ETAText != "02:05" {
		t.Errorf("ETAText = %q, want %q", u.ETAText, "02:05")
	}
	if s.CleanTitle != "Foo" {
		t.Errorf("CleanTitle = %q, want %q", s.CleanTitle, "Foo")
	}
}

func TestFeed_Merger(t *testing.T) {
	s := &State{}
	_, u := Feed(s, `[Merger] Merging formats into "Foo.mkv"`)
	if u == nil {
		t.Fatal("expected an update")
	}
	if u.Phase != PhaseMerging {
		t.Errorf("Phase = %q, want %q", u.Phase, PhaseMerging)
	}
	if u.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", u.Percentage)
	}
	if u.ETAText != "Done" {
		t.Errorf("ETAText = %q, want %q", u.ETAText, "Done")
	}
	if u.Filename != "Foo.mkv" {
		t.Errorf("Filename = %q, want %q", u.Filename, "Foo.mkv")
	}
}

func TestFeed_MetadataLatchesPhase(t *testing.T) {
	s := &State{}
	Feed(s, `[Metadata] Adding metadata to: /tmp/Foo.mkv`)
	if s.Phase != PhaseWritingMeta {
		t.Fatalf("Phase = %q, want %q", s.Phase, PhaseWritingMeta)
	}

	// A subsequent JSON frame must not reset the phase back to Downloading.
	_, u := Feed(s, `{"downloaded_bytes":10,"total_bytes":100}`)
	if u.Phase != PhaseWritingMeta {
		t.Errorf("phase reset to %q after JSON frame, want latch to persist at %q", u.Phase, PhaseWritingMeta)
	}
}

func TestFeed_LegacyTextProgress(t *testing.T) {
	s := &State{}
	_, u := Feed(s, `[download]   6.5% of  707.82KiB at  262.24KiB/s ETA 00:02`)
	if u == nil {
		t.Fatal("expected an update")
	}
	if u.Percentage != 6.5 {
		t.Errorf("Percentage = %v, want 6.5", u.Percentage)
	}
	if u.SpeedText != "262.24KiB/s" {
		t.Errorf("SpeedText = %q, want %q", u.SpeedText, "262.24KiB/s")
	}
	if u.ETAText != "00:02" {
		t.Errorf("ETAText = %q, want %q", u.ETAText, "00:02")
	}
}

func TestFeed_LegacyTextPreservesLastKnownOnUnknown(t *testing.T) {
	s := &State{}
	Feed(s, `[download]   6.5% of  707.82KiB at  262.24KiB/s ETA 00:02`)
	_, u := Feed(s, `[download]  10.0% of  707.82KiB at  N/A ETA Unknown`)
	if u.SpeedText != "262.24KiB/s" {
		t.Errorf("SpeedText should be preserved, got %q", u.SpeedText)
	}
	if u.ETAText != "00:02" {
		t.Errorf("ETAText should be preserved, got %q", u.ETAText)
	}
}

func TestFeed_AlreadyDownloaded(t *testing.T) {
	s := &State{}
	_, u := Feed(s, `[download] Foo.mp4 has already been downloaded`)
	if u.Phase != PhaseFinished {
		t.Errorf("Phase = %q, want %q", u.Phase, PhaseFinished)
	}
	if u.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", u.Percentage)
	}
}

func TestDeriveCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo [abcdefghijk].mp4", "Foo"},
		{"Foo [abcdefghijk].f137.mp4", "Foo"},
		{"Foo [xyz].mp4", "Foo [xyz].mp4"}, // id length != 11, not stripped
	}
	for _, tt := range tests {
		if got := deriveCleanTitle(tt.in); got != tt.want {
			t.Errorf("deriveCleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTitleStickyPerAttempt(t *testing.T) {
	s := &State{}
	Feed(s, `[download] Destination: Foo [abcdefghijk].mp4`)
	first := s.CleanTitle

	Feed(s, `[download] Destination: Bar [zyxwvutsrqp].mp4`)
	if s.CleanTitle != first {
		t.Errorf("CleanTitle changed after first derivation: got %q, want sticky %q", s.CleanTitle, first)
	}
}
