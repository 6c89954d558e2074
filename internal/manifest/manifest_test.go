package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envprobe/envprobe/internal/probes"
	"github.com/envprobe/envprobe/internal/recovery"
)

const sampleManifest = `
probes:
  - id: go-binary
    category: toolchain
    priority: 10
    kind: path
    binary: go
  - id: go-version
    category: toolchain
    priority: 5
    depends_on: [go-binary]
    estimated_ms: 500
    timeout_ms: 5000
    kind: command
    command: [go, version]
  - id: gopath
    category: toolchain
    kind: file
    path: /usr/local/go
`

func TestParse(t *testing.T) {
	pm := probes.NewProcessManager()
	tasks, err := Parse([]byte(sampleManifest), pm)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	byID := map[string]int{}
	for i, task := range tasks {
		byID[task.ID] = i
		assert.NotNil(t, task.Detector, "every spec builds a detector")
	}

	version := tasks[byID["go-version"]]
	assert.Equal(t, "toolchain", version.Category)
	assert.Equal(t, 5, version.Priority)
	assert.Equal(t, []string{"go-binary"}, version.Dependencies)
	assert.Equal(t, 500*time.Millisecond, version.EstimatedTime)
	assert.Equal(t, 5*time.Second, version.Timeout)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "probes: ["},
		{"no probes", "probes: []"},
		{"unknown kind", "probes:\n  - id: x\n    kind: telepathy\n"},
		{"command without argv", "probes:\n  - id: x\n    kind: command\n"},
		{"file without path", "probes:\n  - id: x\n    kind: file\n"},
		{"path without binary", "probes:\n  - id: x\n    kind: path\n"},
		{"registry without key", "probes:\n  - id: x\n    kind: registry\n"},
	}

	pm := probes.NewProcessManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), pm)
			require.Error(t, err)

			var ce *recovery.ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t,
				[]recovery.Category{recovery.CategoryParsingError, recovery.CategoryConfigurationError},
				ce.Category)
		})
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	pm := probes.NewProcessManager()
	tasks, err := Load(path, pm)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestLoadMissingFile(t *testing.T) {
	pm := probes.NewProcessManager()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), pm)
	require.Error(t, err)

	var ce *recovery.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, recovery.CategoryFilesystemAccess, ce.Category)
}

func TestParsedDetectorRuns(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "marker")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	doc := "probes:\n  - id: marker\n    kind: file\n    path: " + target + "\n"

	pm := probes.NewProcessManager()
	tasks, err := Parse([]byte(doc), pm)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	v, err := tasks[0].Detector(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, v)
}
