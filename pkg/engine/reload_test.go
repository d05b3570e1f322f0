package engine

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specmock/pkg/spec"
)

const reloadV1 = `
openapi: 3.0.3
info: {title: reload, version: "1"}
paths:
  /v:
    get:
      responses:
        "200":
          description: ok
          content:
            text/plain:
              example: one
`

const reloadV2 = `
openapi: 3.0.3
info: {title: reload, version: "2"}
paths:
  /v:
    get:
      responses:
        "200":
          description: ok
          content:
            text/plain:
              example: two
`

func waitEvent(t *testing.T, events <-chan ReloadEvent) ReloadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event")
		return ReloadEvent{}
	}
}

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reloadV1), 0o600))

	doc, err := spec.LoadFile(path)
	require.NoError(t, err)
	h, err := NewHandler(doc)
	require.NoError(t, err)
	srv := NewServer(h)

	w := NewWatcher(h, path, func() (*spec.Document, error) { return spec.LoadFile(path) },
		WithDebounce(50*time.Millisecond))
	events, err := w.Start()
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	assert.Equal(t, "one", serve(srv, http.MethodGet, "/v", "", nil).Body.String())

	require.NoError(t, os.WriteFile(path, []byte(reloadV2), 0o600))
	ev := waitEvent(t, events)
	require.NoError(t, ev.Error)
	assert.Equal(t, "2", h.Document().Version)
	assert.Equal(t, "two", serve(srv, http.MethodGet, "/v", "", nil).Body.String())

	t.Run("broken document keeps the previous one", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("openapi: [not, valid"), 0o600))
		ev := waitEvent(t, events)
		require.Error(t, ev.Error)
		assert.Equal(t, "2", h.Document().Version)
		assert.Equal(t, "two", serve(srv, http.MethodGet, "/v", "", nil).Body.String())
	})
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reloadV1), 0o600))

	doc, err := spec.LoadFile(path)
	require.NoError(t, err)
	h, err := NewHandler(doc)
	require.NoError(t, err)

	w := NewWatcher(h, path, func() (*spec.Document, error) { return spec.LoadFile(path) },
		WithDebounce(50*time.Millisecond))
	events, err := w.Start()
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(reloadV2), 0o600))

	select {
	case ev := <-events:
		t.Fatalf("unexpected reload: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, "1", h.Document().Version)
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(loadDoc(t, reloadV1))
	require.NoError(t, err)

	w := NewWatcher(h, filepath.Join(t.TempDir(), "missing", "api.yaml"), nil)
	_, err = w.Start()
	require.Error(t, err)
	w.Stop()
}
