// Package probes provides reference detector implementations: shell version
// probes, filesystem checks, PATH lookups, and registry reads. Each returns
// classified errors with enough context for direct display, and each is just
// a scheduler.Detector — the engine doesn't know or care which kind it runs.
package probes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/envprobe/envprobe/internal/recovery"
	"github.com/envprobe/envprobe/internal/scheduler"
)

// CommandOutput is the result value of a command probe.
type CommandOutput struct {
	Command string
	Stdout  string
	Stderr  string
}

// Command returns a detector that runs name with args through pm and
// captures its output. Non-zero exit, missing binary, and permission
// failures all come back as classified errors.
func Command(pm *ProcessManager, name string, args ...string) scheduler.Detector {
	return func(ctx context.Context) (any, error) {
		stdout, stderr, err := pm.Run(ctx, name, args...)
		if err != nil {
			category := recovery.CategoryCommandExecution
			if errors.Is(err, exec.ErrNotFound) {
				category = recovery.CategoryConfigurationError
			} else if errors.Is(err, fs.ErrPermission) {
				category = recovery.CategoryPermissionDenied
			}
			return nil, recovery.Classify(err, category,
				"probes", "command", fmt.Sprintf("probe command %q failed", name),
				recovery.WithCommand(name+" "+strings.Join(args, " ")))
		}

		return &CommandOutput{
			Command: name,
			Stdout:  strings.TrimSpace(string(stdout)),
			Stderr:  strings.TrimSpace(string(stderr)),
		}, nil
	}
}

// FileInfo is the result value of a filesystem probe.
type FileInfo struct {
	Path  string
	IsDir bool
	Size  int64
}

// FileExists returns a detector that checks path exists and reports basic
// metadata about it.
func FileExists(path string) scheduler.Detector {
	return func(ctx context.Context) (any, error) {
		info, err := os.Stat(path)
		if err != nil {
			category := recovery.CategoryFilesystemAccess
			if errors.Is(err, fs.ErrPermission) {
				category = recovery.CategoryPermissionDenied
			}
			return nil, recovery.Classify(err, category,
				"probes", "file_exists", fmt.Sprintf("cannot stat %q", path),
				recovery.WithFilePath(path))
		}

		return &FileInfo{
			Path:  path,
			IsDir: info.IsDir(),
			Size:  info.Size(),
		}, nil
	}
}

// LookPath returns a detector that resolves bin on PATH and reports the
// resolved location.
func LookPath(bin string) scheduler.Detector {
	return func(ctx context.Context) (any, error) {
		resolved, err := exec.LookPath(bin)
		if err != nil {
			return nil, recovery.Classify(err, recovery.CategoryFilesystemAccess,
				"probes", "look_path", fmt.Sprintf("%q not found on PATH", bin),
				recovery.WithCommand(bin),
				recovery.WithRetryable(false),
				recovery.WithSuggestedAction(fmt.Sprintf("Install %s or add it to PATH.", bin)))
		}
		return resolved, nil
	}
}

// RegistryRead returns a detector for a Windows registry value. On any other
// platform it fails with a system_unsupported classification; on Windows the
// read goes through `reg query` so no cgo or syscall shim is needed.
func RegistryRead(pm *ProcessManager, key, valueName string) scheduler.Detector {
	return func(ctx context.Context) (any, error) {
		if runtime.GOOS != "windows" {
			return nil, recovery.Classify(nil, recovery.CategorySystemUnsupported,
				"probes", "registry_read",
				fmt.Sprintf("registry probe for %q requires Windows", key),
				recovery.WithRegistryKey(key))
		}

		stdout, _, err := pm.Run(ctx, "reg", "query", key, "/v", valueName)
		if err != nil {
			return nil, recovery.Classify(err, recovery.CategoryRegistryAccess,
				"probes", "registry_read", fmt.Sprintf("cannot read registry key %q", key),
				recovery.WithRegistryKey(key))
		}
		return strings.TrimSpace(string(stdout)), nil
	}
}
