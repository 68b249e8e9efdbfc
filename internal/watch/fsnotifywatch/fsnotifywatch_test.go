package fsnotifywatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/watch"
)

func TestObserver_DetectsCreatedFile(t *testing.T) {
	dir := t.TempDir()
	factory := New()
	observer, err := factory(watch.ModeAuto)
	require.NoError(t, err)

	changes := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, observer.Start(ctx, dir, func(relPath string, kind watch.ChangeKind) {
		changes <- relPath
	}))
	defer observer.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package a\n"), 0o644))

	select {
	case rel := <-changes:
		assert.Equal(t, "new.go", rel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestObserver_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	observer, err := New()(watch.ModeAuto)
	require.NoError(t, err)

	require.NoError(t, observer.Start(context.Background(), dir, func(string, watch.ChangeKind) {}))
	assert.NoError(t, observer.Stop())
	assert.NoError(t, observer.Stop())
}
