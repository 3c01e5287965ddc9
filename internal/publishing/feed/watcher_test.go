package feed

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFileWatcher_ReportsChange(t *testing.T) {
	path := writeFeed(t, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	errCh := make(chan error, 1)
	w := NewFileWatcher(path, 20*time.Millisecond)
	go func() {
		errCh <- w.Run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`[{"author":"A"}]`), 0o644); err != nil {
		t.Fatalf("Failed to rewrite feed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}
