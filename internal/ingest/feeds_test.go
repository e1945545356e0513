package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := "feeds:\n  - name: TypeScript Blog\n    url: https://devblogs.microsoft.com/typescript/feed/\n  - name: React Blog\n    url: https://react.dev/rss.xml\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("LoadFeeds: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("len = %d, want 2", len(feeds))
	}
	if feeds[0].Name != "TypeScript Blog" || feeds[1].URL != "https://react.dev/rss.xml" {
		t.Fatalf("unexpected feeds: %+v", feeds)
	}
}

func TestLoadFeedsMissingFile(t *testing.T) {
	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFeedsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds: [unterminated"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFeeds(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
