package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// writeResolverScript creates a shell script acting as an external resolver.
func writeResolverScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolver.sh")
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestProcessResolverHappyPath(t *testing.T) {
	script := writeResolverScript(t, `
echo '{"bundleIdentifier":"com.example.external"}'
while read line; do
  echo '{"resolvedInformation":{"kind":"symbol","url":"/documentation/external/myclass","title":"MyClass","language":"swift","platforms":[{"name":"macOS","beta":true}]}}'
done
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	r, err := StartProcessResolver(ctx, script, nil, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, "com.example.external", r.BundleIdentifier())

	info, err := r.ResolveTopic(ctx, "doc://com.example.external/documentation/external/myclass")
	require.NoError(t, err)
	assert.Equal(t, "MyClass", info.Title)
	assert.True(t, info.IsBeta())
}

func TestProcessResolverErrorMessage(t *testing.T) {
	script := writeResolverScript(t, `
echo '{"bundleIdentifier":"com.example.external"}'
while read line; do
  echo '{"errorMessage":"no such page"}'
done
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	r, err := StartProcessResolver(ctx, script, nil, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, err = r.ResolveTopic(ctx, "doc://com.example.external/documentation/missing")
	var failure *ResolutionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "no such page", failure.Message)
}

func TestProcessResolverHandshakeSentAgain(t *testing.T) {
	script := writeResolverScript(t, `
echo '{"bundleIdentifier":"com.example.external"}'
read line
echo '{"resolvedInformation":{"kind":"symbol","url":"/a","title":"A","language":"swift"}}'
read line
echo '{"bundleIdentifier":"com.example.external"}'
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	r, err := StartProcessResolver(ctx, script, nil, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	// First resolution succeeds; the handshake it performed remains valid.
	info, err := r.ResolveTopic(ctx, "doc://com.example.external/a")
	require.NoError(t, err)
	assert.Equal(t, "A", info.Title)

	// Re-sending the identity handshake is a protocol violation for the
	// second request only.
	_, err = r.ResolveTopic(ctx, "doc://com.example.external/b")
	require.Error(t, err)
	assert.True(t, archerr.IsCategory(err, archerr.CategoryProtocol))
	assert.Contains(t, err.Error(), "sent bundle identifier again")
	assert.Equal(t, "com.example.external", r.BundleIdentifier())
}

func TestProcessResolverForwardsStderr(t *testing.T) {
	script := writeResolverScript(t, `
echo 'starting up' >&2
echo '{"bundleIdentifier":"com.example.external"}'
echo 'ready' >&2
while read line; do
  echo '{"errorMessage":"nope"}'
done
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var mu sync.Mutex
	var stderrLines []string
	r, err := StartProcessResolver(ctx, script, nil, func(line string) {
		mu.Lock()
		defer mu.Unlock()
		stderrLines = append(stderrLines, line)
	})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, _ = r.ResolveTopic(ctx, "doc://com.example.external/x")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(stderrLines) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, stderrLines, "starting up")
	assert.Contains(t, stderrLines, "ready")
}

func TestProcessResolverMalformedJSON(t *testing.T) {
	script := writeResolverScript(t, `
echo '{"bundleIdentifier":"com.example.external"}'
read line
echo 'not json at all'
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	r, err := StartProcessResolver(ctx, script, nil, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, err = r.ResolveTopic(ctx, "doc://com.example.external/x")
	require.Error(t, err)
	assert.True(t, archerr.IsCategory(err, archerr.CategoryProtocol))
}

func TestProcessResolverInvalidHandshake(t *testing.T) {
	script := writeResolverScript(t, `
echo 'hello there'
`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	_, err := StartProcessResolver(ctx, script, nil, nil)
	require.Error(t, err)
	assert.True(t, archerr.IsCategory(err, archerr.CategoryProtocol))
}
