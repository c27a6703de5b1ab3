package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/errors"
)

// startWatcher runs a watcher over dir until the test ends.
func startWatcher(t *testing.T, dir string, run RunFunc, opts ...Option) {
	t.Helper()
	w, err := New(dir, run, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the event loop a moment to start
	time.Sleep(20 * time.Millisecond)
}

func counter() (RunFunc, *atomic.Int32) {
	var n atomic.Int32
	return func(context.Context) error {
		n.Add(1)
		return nil
	}, &n
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	run, n := counter()
	startWatcher(t, dir, run, WithDebounce(100*time.Millisecond), WithMaxRerunsPerMinute(0))

	path := filepath.Join(dir, "user_profile.rs")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("pub struct UserProfile {}\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return n.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load(), "a burst of writes is one rerun")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	run, n := counter()
	startWatcher(t, dir, run, WithDebounce(20*time.Millisecond))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	run, n := counter()
	startWatcher(t, dir, run, WithDebounce(20*time.Millisecond), WithMaxRerunsPerMinute(0))

	sub := filepath.Join(dir, "kv")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.Eventually(t, func() bool { return n.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	before := n.Load()

	// Files in the new directory are watched too
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "session.rs"), []byte("pub struct Session {}\n"), 0644))
	require.Eventually(t, func() bool { return n.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_ReRunsAreSerialized(t *testing.T) {
	dir := t.TempDir()

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		runs    atomic.Int32
	)
	run := func(context.Context) error {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(80 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		runs.Add(1)
		return errors.New("failures do not stop watching")
	}
	startWatcher(t, dir, run, WithDebounce(10*time.Millisecond), WithMaxRerunsPerMinute(0))

	path := filepath.Join(dir, "a.rs")
	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0644))
		time.Sleep(40 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, overlap)
}

func TestNew_MissingRoot(t *testing.T) {
	run, _ := counter()
	_, err := New(filepath.Join(t.TempDir(), "missing"), run)
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant("/m/db/user.rs"))
	assert.True(t, relevant("/m/.buildampignore"))
	assert.False(t, relevant("/m/db/user.rs.swp"))
	assert.False(t, relevant("/m/README.md"))
}
