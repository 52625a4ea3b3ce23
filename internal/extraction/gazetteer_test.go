package extraction

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
)

func TestGazetteer_Classify(t *testing.T) {
	g := DefaultGazetteer()

	tests := []struct {
		name string
		want EntityKind
	}{
		{"Paris", EntityPlace},
		{"new  york", EntityPlace},
		{"Google", EntityOrganization},
		{"Trader Joe's", EntityOrganization},
		{"Google's", EntityOrganization},
		{"Maple Street", EntityPlace},
		{"Acme Corp", EntityOrganization},
		{"John", EntityUnknown},
		{"Street", EntityUnknown},
		{"", EntityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Classify(tt.name))
		})
	}

	assert.Equal(t, "place", EntityPlace.String())
	assert.Equal(t, "organization", EntityOrganization.String())
	assert.True(t, g.IsIgnored("Friday"))
	assert.False(t, g.IsIgnored("John"))
}

func writeGazetteer(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadGazetteer(t *testing.T) {
	dir := t.TempDir()

	t.Run("extends builtin", func(t *testing.T) {
		path := filepath.Join(dir, "gazetteer.toml")
		writeGazetteer(t, path, `
places = ["Springfield"]
organizations = ["Initech"]
ignore = ["Standup"]
`)
		g, err := LoadGazetteer(path)
		require.NoError(t, err)
		assert.Equal(t, EntityPlace, g.Classify("Springfield"))
		assert.Equal(t, EntityOrganization, g.Classify("Initech"))
		assert.Equal(t, EntityPlace, g.Classify("London"))
		assert.True(t, g.IsIgnored("standup"))

		a := newTestAnalyzer(WithGazetteer(g))
		assert.Empty(t, a.Analyze("Drive to Springfield").ContactPerson)
		assert.Equal(t, "Springfield", newTestAnalyzer().Analyze("Drive to Springfield").ContactPerson)
	})

	t.Run("empty path", func(t *testing.T) {
		g, err := LoadGazetteer("")
		require.NoError(t, err)
		assert.Equal(t, DefaultGazetteer().Size(), g.Size())
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		writeGazetteer(t, path, `places = [`)
		_, err := LoadGazetteer(path)
		require.ErrorIs(t, err, ErrInvalidGazetteer)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGazetteer(filepath.Join(dir, "missing.toml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWatchGazetteer_Reloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "gazetteer.toml")
	writeGazetteer(t, path, `organizations = ["Initech"]`)

	logger := logging.NewTestLogger()
	w, err := WatchGazetteer(ctx, path, logger.Logger)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.Equal(t, EntityOrganization, w.Current().Classify("Initech"))
	assert.Equal(t, EntityUnknown, w.Current().Classify("Globex"))

	writeGazetteer(t, path, `organizations = ["Initech", "Globex"]`)

	require.Eventually(t, func() bool {
		return w.Current().Classify("Globex") == EntityOrganization
	}, 3*time.Second, 20*time.Millisecond)

	a := newTestAnalyzer(WithGazetteer(w))
	assert.Empty(t, a.Analyze("Email Globex about renewal").ContactPerson)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchGazetteer_ConcurrentClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.toml")
	writeGazetteer(t, path, `places = ["Avalon"]`)

	w, err := WatchGazetteer(context.Background(), path, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Close())
		}()
	}
	wg.Wait()
}

func TestWatchGazetteer_MissingFile(t *testing.T) {
	_, err := WatchGazetteer(context.Background(), filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.Error(t, err)
}
