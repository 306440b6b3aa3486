package cli

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/scribe/pkg/cache"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCacheCommands(t *testing.T) {
	testEnv(t)

	// Nothing cached yet.
	for _, sub := range []string{"stats", "clear", "path"} {
		if err := execute(t, "cache", sub); err != nil {
			t.Errorf("cache %s on empty cache: %v", sub, err)
		}
	}

	dir, _ := cacheDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "cache", "stats"); err != nil {
		t.Errorf("cache stats: %v", err)
	}
	if err := execute(t, "cache", "clear"); err != nil {
		t.Errorf("cache clear: %v", err)
	}
	if n, _, _ := fc.Stats(); n != 0 {
		t.Errorf("entries after clear = %d, want 0", n)
	}
}
