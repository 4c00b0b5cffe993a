package ade

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsDatasetChanges(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 2, 2)

	w, err := NewWatcher(WatcherConfig{Root: root, DebounceDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeTextFile(t, filepath.Join(dir, "a_atr.txt"), "1#0#0#wall#wall#\"\"\n")

	select {
	case batch := <-w.Changes():
		require.NotEmpty(t, batch)
		assert.Contains(t, batch, filepath.Join("training", "a_atr.txt"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 2, 2)

	w, err := NewWatcher(WatcherConfig{Root: root, DebounceDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeTextFile(t, filepath.Join(dir, "notes.md"), "irrelevant")

	select {
	case batch := <-w.Changes():
		t.Fatalf("unexpected change batch: %v", batch)
	case <-time.After(300 * time.Millisecond):
		// No batch is the expected outcome.
	}
}

func TestIsDatasetFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"training/a.jpg", true},
		{"training/a_seg.png", true},
		{"training/a_parts_2.png", true},
		{"training/a_atr.txt", true},
		{"training/notes.md", false},
		{"training/a.txt", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, isDatasetFile(tc.path), tc.path)
	}
}
