package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/infrastructure/metrics"
	"github.com/mbj/siteapi/internal/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeInspector struct {
	mu      sync.Mutex
	invalid map[entities.ResourceKey]bool
	seen    []entities.ResourceKey
}

func (f *fakeInspector) Inspect(_ context.Context, key entities.ResourceKey) ports.ResourceReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, key)
	if f.invalid[key] {
		return ports.ResourceReport{Resource: key, Error: "category.items must be array"}
	}
	return ports.ResourceReport{Resource: key, OK: true}
}

func (f *fakeInspector) inspected(key entities.ResourceKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.seen {
		if k == key {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, dir string, inspector Inspector, m *metrics.Metrics) *DataWatcher {
	t.Helper()

	w, err := New(dir, inspector, m, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return w
}

func TestDataWatcher_ReportsResourceChanges(t *testing.T) {
	dir := t.TempDir()
	m := metrics.New()
	inspector := &fakeInspector{invalid: map[entities.ResourceKey]bool{entities.ResourceTech: true}}
	w := startWatcher(t, dir, inspector, m)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte("[]\n"), 0o644))

	assert.Eventually(t, func() bool {
		return inspector.inspected(entities.ResourcePosts)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Positive(t, testutil.ToFloat64(m.FileEvents.WithLabelValues("posts", "create")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tech.json"), []byte(`[{"title":"x"}]`), 0o644))

	assert.Eventually(t, func() bool {
		return w.Stats().Invalid > 0
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, filepath.Join(dir, "tech.json"), w.Stats().LastEventPath)
}

func TestDataWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	inspector := &fakeInspector{}
	w := startWatcher(t, dir, inspector, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json.tmp-123"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.json"), []byte("[]"), 0o644))

	assert.Eventually(t, func() bool {
		return inspector.inspected(entities.ResourceProjects)
	}, 5*time.Second, 20*time.Millisecond)

	inspector.mu.Lock()
	defer inspector.mu.Unlock()
	for _, key := range inspector.seen {
		assert.Equal(t, entities.ResourceProjects, key)
	}
	assert.NotContains(t, w.Stats().LastEventPath, ".tmp-")
}

func TestDataWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w := startWatcher(t, dir, nil, nil)
	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		return w.Stats().Removed == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, nil, nil)
	assert.Error(t, err)
}
