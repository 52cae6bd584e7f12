package storage

import "testing"

func TestKindForUpload(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		wantKind    MediaKind
		wantOK      bool
	}{
		{"video/mp4", "clip.mp4", MediaKindVideo, true},
		{"image/png", "pic.png", MediaKindImage, true},
		{"IMAGE/JPEG", "pic.jpg", MediaKindImage, true},
		{"application/octet-stream", "clip.webm", MediaKindVideo, true},
		{"", "photo.JPEG", MediaKindImage, true},
		{"application/pdf", "notes.pdf", "", false},
		{"", "archive.zip", "", false},
	}
	for _, tc := range cases {
		kind, ok := KindForUpload(tc.contentType, tc.filename)
		if ok != tc.wantOK || kind != tc.wantKind {
			t.Fatalf("KindForUpload(%q, %q) = (%q, %v), want (%q, %v)",
				tc.contentType, tc.filename, kind, ok, tc.wantKind, tc.wantOK)
		}
	}
}

func TestContentTypeForFilename(t *testing.T) {
	if ct := ContentTypeForFilename("reel.mov"); ct != "video/quicktime" {
		t.Fatalf("expected video/quicktime, got %q", ct)
	}
	if ct := ContentTypeForFilename("mystery.bin"); ct != "application/octet-stream" {
		t.Fatalf("expected fallback content type, got %q", ct)
	}
}

func TestEntryKey(t *testing.T) {
	got := EntryKey("abc-123", "clip.mp4")
	if got != "entries/abc-123/clip.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
	// path.Base strips any directory components smuggled into the filename.
	got = EntryKey("abc-123", "../escape.mp4")
	if got != "entries/abc-123/escape.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
}
