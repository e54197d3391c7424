package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/IshaanNene/feedpulse/internal/config"
)

const page = `<html><body><div class="feed-shared-update-v2">Hello</div></body></html>`

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"page.html", "page.html.gz", "page.html.br"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteSnapshot(path, page); err != nil {
				t.Fatalf("write: %v", err)
			}
			snap, err := OpenSnapshot(path)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			got, err := snap.Source(context.Background())
			if err != nil || got != page {
				t.Errorf("expected original markup, got %q (err=%v)", got, err)
			}
		})
	}
}

func TestSnapshotCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html.br")
	markup := strings.Repeat(page, 100)
	if err := WriteSnapshot(path, markup); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(markup)) {
		t.Errorf("expected compressed file, got %d bytes for %d bytes of markup", info.Size(), len(markup))
	}
}

func TestSnapshotIsStable(t *testing.T) {
	snap := NewSnapshot("mem", page)
	ctx := context.Background()

	before, _ := snap.Extent(ctx)
	if err := snap.Grow(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}
	after, _ := snap.Extent(ctx)
	if before != after || before != len(page) {
		t.Errorf("snapshot extent changed: %d -> %d", before, after)
	}
}

func TestSnapshotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSnapshot("mem", page).Source(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestOpenSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenSnapshot(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.html.gz")
	if err := os.WriteFile(bad, []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenSnapshot(bad); err == nil {
		t.Error("expected error for corrupt gzip")
	}
}

func TestSearchURL(t *testing.T) {
	want := "https://www.linkedin.com/search/results/content/?keywords=%23golang&origin=GLOBAL_SEARCH_HEADER"
	for _, tag := range []string{"golang", "#golang", " golang "} {
		if got := SearchURL("https://www.linkedin.com/", tag); got != want {
			t.Errorf("SearchURL(%q) = %q", tag, got)
		}
	}
}

func TestSessionURLs(t *testing.T) {
	if got := LoginURL("https://example.com/"); got != "https://example.com/login" {
		t.Errorf("unexpected login URL %q", got)
	}
	if got := FeedURL("https://example.com"); got != "https://example.com/feed/" {
		t.Errorf("unexpected feed URL %q", got)
	}
}

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/feed/", true},
		{"https://www.linkedin.com/mynetwork/", true},
		{"https://www.linkedin.com/checkpoint/challenge", false},
		{"https://www.linkedin.com/login", false},
	}
	for _, tt := range tests {
		if got := IsAuthenticated(tt.url); got != tt.want {
			t.Errorf("IsAuthenticated(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsLoginWall(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/login?session_redirect=x", true},
		{"https://www.linkedin.com/authwall?trk=1", true},
		{"https://www.linkedin.com/checkpoint/challenge", true},
		{"https://www.linkedin.com/search/results/content/?keywords=%23go", false},
		{"https://www.linkedin.com/feed/", false},
	}
	for _, tt := range tests {
		if got := IsLoginWall(tt.url); got != tt.want {
			t.Errorf("IsLoginWall(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestLauncherFlags(t *testing.T) {
	l := newLauncher(config.BrowserConfig{Headless: true, Proxy: "http://127.0.0.1:8080", UserDataDir: "/tmp/profile"})

	for _, flag := range []string{"disable-blink-features", "no-sandbox", "disable-dev-shm-usage", "disable-gpu", "lang"} {
		if !l.Has(flags.Flag(flag)) {
			t.Errorf("expected launch flag %q", flag)
		}
	}
	if got := l.Get(flags.Flag("disable-blink-features")); got != "AutomationControlled" {
		t.Errorf("unexpected disable-blink-features value %q", got)
	}
	if got := l.Get(flags.Flag("proxy-server")); got != "http://127.0.0.1:8080" {
		t.Errorf("unexpected proxy %q", got)
	}
}
