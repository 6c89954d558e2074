package recovery

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaults(t *testing.T) {
	tests := []struct {
		category      Category
		wantRetryable bool
		wantSeverity  Severity
	}{
		{CategoryCommandExecution, true, SeverityMedium},
		{CategoryNetworkAccess, true, SeverityMedium},
		{CategoryTimeout, true, SeverityHigh},
		{CategoryFilesystemAccess, false, SeverityMedium},
		{CategoryRegistryAccess, false, SeverityMedium},
		{CategoryPermissionDenied, false, SeverityHigh},
		{CategoryParsingError, false, SeverityLow},
		{CategoryConfigurationError, false, SeverityHigh},
		{CategorySystemUnsupported, false, SeverityLow},
		{CategoryUnknown, false, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			e := Classify(errors.New("boom"), tt.category, "probes", "op", "failed")
			assert.Equal(t, tt.wantRetryable, e.Retryable)
			assert.Equal(t, tt.wantSeverity, e.Severity)
			assert.NotEmpty(t, e.SuggestedAction, "every category needs a remediation hint")
		})
	}
}

func TestClassifyContext(t *testing.T) {
	e := Classify(errors.New("exit status 1"), CategoryCommandExecution,
		"probes", "command", "node probe failed",
		WithCommand("node --version"),
		WithMetadata("exit_code", 1))

	assert.Equal(t, "probes", e.Context.Component)
	assert.Equal(t, "command", e.Context.Operation)
	assert.Equal(t, runtime.GOOS, e.Context.Platform)
	assert.False(t, e.Context.Timestamp.IsZero())
	assert.Equal(t, "node --version", e.Context.Command)
	assert.Equal(t, 1, e.Context.Metadata["exit_code"])
}

func TestClassifyOverrides(t *testing.T) {
	e := Classify(nil, CategoryFilesystemAccess, "probes", "stat", "transient fs glitch",
		WithRetryable(true),
		WithSeverity(SeverityCritical),
		WithSuggestedAction("Remount the volume."),
		WithFilePath("/opt/tool"))

	assert.True(t, e.Retryable, "caller can mark a normally non-retryable category retryable")
	assert.Equal(t, SeverityCritical, e.Severity)
	assert.Equal(t, "Remount the volume.", e.SuggestedAction)
	assert.Equal(t, "/opt/tool", e.Context.FilePath)
}

func TestClassifyChaining(t *testing.T) {
	cause := errors.New("permission denied")
	e := Classify(cause, CategoryPermissionDenied, "probes", "stat", "cannot stat")

	require.ErrorIs(t, e, cause, "cause must survive for errors.Is")
	assert.Contains(t, e.Error(), "permission_denied")
	assert.Contains(t, e.Error(), "cannot stat")
}

func TestClassifyPassthrough(t *testing.T) {
	inner := Classify(nil, CategoryTimeout, "scheduler", "timeout_guard", "deadline exceeded")
	wrapped := fmt.Errorf("task failed: %w", inner)

	// Re-classifying a wrapped classification must not relabel it.
	outer := Classify(wrapped, CategoryUnknown, "scheduler", "execute", "task failed")
	assert.Same(t, inner, outer)
	assert.Equal(t, CategoryTimeout, outer.Category)
}

func TestHelpers(t *testing.T) {
	classified := Classify(nil, CategoryNetworkAccess, "probes", "fetch", "down")
	plain := errors.New("plain")

	assert.True(t, IsRetryable(classified))
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, CategoryNetworkAccess, CategoryOf(classified))
	assert.Equal(t, CategoryUnknown, CategoryOf(plain))
}
