// Package manifest loads declarative probe batches from YAML. A manifest
// describes the detection tasks — what to probe and how they depend on each
// other — without touching engine configuration.
package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/envprobe/envprobe/internal/probes"
	"github.com/envprobe/envprobe/internal/recovery"
	"github.com/envprobe/envprobe/internal/scheduler"
)

// ProbeSpec is one probe entry in a manifest file.
type ProbeSpec struct {
	ID          string   `yaml:"id"`
	Category    string   `yaml:"category"`
	Priority    int      `yaml:"priority"`
	DependsOn   []string `yaml:"depends_on"`
	EstimatedMs int      `yaml:"estimated_ms"`
	TimeoutMs   int      `yaml:"timeout_ms"`

	// Kind selects the detector: "command", "file", "path", or "registry".
	Kind string `yaml:"kind"`

	Command []string `yaml:"command"` // command kind: argv
	Path    string   `yaml:"path"`    // file kind
	Binary  string   `yaml:"binary"`  // path kind
	Key     string   `yaml:"key"`     // registry kind
	Value   string   `yaml:"value"`   // registry kind (value name)
}

// Manifest is the parsed document.
type Manifest struct {
	Probes []ProbeSpec `yaml:"probes"`
}

// Load parses the manifest at path and builds the detection tasks it
// describes. Command and registry probes run their subprocesses through pm.
func Load(path string, pm *probes.ProcessManager) ([]scheduler.DetectionTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, recovery.Classify(err, recovery.CategoryFilesystemAccess,
			"manifest", "load", fmt.Sprintf("cannot read manifest %q", path),
			recovery.WithFilePath(path))
	}
	return Parse(data, pm)
}

// Parse builds detection tasks from raw manifest bytes.
func Parse(data []byte, pm *probes.ProcessManager) ([]scheduler.DetectionTask, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, recovery.Classify(err, recovery.CategoryParsingError,
			"manifest", "parse", "manifest is not valid YAML")
	}
	if len(m.Probes) == 0 {
		return nil, recovery.Classify(nil, recovery.CategoryConfigurationError,
			"manifest", "parse", "manifest defines no probes")
	}

	tasks := make([]scheduler.DetectionTask, 0, len(m.Probes))
	for _, spec := range m.Probes {
		detector, err := buildDetector(spec, pm)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, scheduler.DetectionTask{
			ID:            spec.ID,
			Category:      spec.Category,
			Priority:      spec.Priority,
			Dependencies:  spec.DependsOn,
			EstimatedTime: time.Duration(spec.EstimatedMs) * time.Millisecond,
			Timeout:       time.Duration(spec.TimeoutMs) * time.Millisecond,
			Detector:      detector,
		})
	}

	return tasks, nil
}

func buildDetector(spec ProbeSpec, pm *probes.ProcessManager) (scheduler.Detector, error) {
	switch spec.Kind {
	case "command":
		if len(spec.Command) == 0 {
			return nil, specErr(spec, "command probe needs a non-empty command list")
		}
		return probes.Command(pm, spec.Command[0], spec.Command[1:]...), nil
	case "file":
		if spec.Path == "" {
			return nil, specErr(spec, "file probe needs a path")
		}
		return probes.FileExists(spec.Path), nil
	case "path":
		if spec.Binary == "" {
			return nil, specErr(spec, "path probe needs a binary name")
		}
		return probes.LookPath(spec.Binary), nil
	case "registry":
		if spec.Key == "" {
			return nil, specErr(spec, "registry probe needs a key")
		}
		return probes.RegistryRead(pm, spec.Key, spec.Value), nil
	default:
		return nil, specErr(spec, fmt.Sprintf("unknown probe kind %q", spec.Kind))
	}
}

func specErr(spec ProbeSpec, msg string) error {
	return recovery.Classify(nil, recovery.CategoryConfigurationError,
		"manifest", "parse", fmt.Sprintf("probe %q: %s", spec.ID, msg))
}
