package preview

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/observability"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServerServesArchive(t *testing.T) {
	ResetRegistry()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "page.json"), []byte(`{"ok":true}`), 0o644))

	port := freePort(t)
	reg := prometheus.NewRegistry()
	observability.NewBuildMetrics(reg)
	s, err := NewServer(port, root, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://localhost:%d/data/page.json", port))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.JSONEq(t, `{"ok":true}`, string(body))

	metrics, err := http.Get(fmt.Sprintf("http://localhost:%d/metrics", port))
	require.NoError(t, err)
	metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)

	cancel()
	require.NoError(t, <-done)
	_, registered := LookupServer(port)
	assert.False(t, registered)
}

func TestServerFailsFastOnBusyPort(t *testing.T) {
	ResetRegistry()
	port := freePort(t)
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	require.NoError(t, err)
	defer l.Close()

	_, err = NewServer(port, t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, archerr.IsCategory(err, archerr.CategoryPreview))
	assert.Contains(t, err.Error(), fmt.Sprintf("port %d", port))
}

func TestRegistryRejectsDuplicatePort(t *testing.T) {
	ResetRegistry()
	port := freePort(t)
	s, err := NewServer(port, t.TempDir(), nil)
	require.NoError(t, err)
	defer s.Close()

	found, ok := LookupServer(port)
	require.True(t, ok)
	assert.Same(t, s, found)

	err = sharedRegistry.register(port, &Server{port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestSessionRebuildsOnCatalogChange(t *testing.T) {
	ResetRegistry()
	catalog := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(catalog, "Page.md"), []byte("# A\n"), 0o644))

	rebuilt := make(chan struct{}, 8)
	s, err := NewServer(freePort(t), t.TempDir(), nil)
	require.NoError(t, err)

	session := NewSession(s, catalog, func(ctx context.Context) error {
		rebuilt <- struct{}{}
		return nil
	}, SessionOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(catalog, "Page.md"), []byte("# B\n"), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog change did not trigger a rebuild")
	}

	cancel()
	require.NoError(t, <-done)
}
