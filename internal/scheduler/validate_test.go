package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/envprobe/envprobe/internal/logging"
)

func noopDetector(ctx context.Context) (any, error) { return nil, nil }

func TestValidateBatchErrors(t *testing.T) {
	tests := []struct {
		name        string
		tasks       []DetectionTask
		errContains string
	}{
		{
			name: "duplicate id",
			tasks: []DetectionTask{
				{ID: "go", Detector: noopDetector},
				{ID: "go", Detector: noopDetector},
			},
			errContains: "duplicate",
		},
		{
			name:        "empty id",
			tasks:       []DetectionTask{{ID: "", Detector: noopDetector}},
			errContains: "empty ID",
		},
		{
			name:        "missing detector",
			tasks:       []DetectionTask{{ID: "go"}},
			errContains: "no detector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBatch(tt.tasks, logging.Nop())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not mention %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateBatchWarnsNotFails(t *testing.T) {
	tests := []struct {
		name        string
		tasks       []DetectionTask
		wantWarning string
	}{
		{
			name: "missing dependency",
			tasks: []DetectionTask{
				{ID: "a", Dependencies: []string{"ghost"}, Detector: noopDetector},
			},
			wantWarning: "dependency not present",
		},
		{
			name: "cycle",
			tasks: []DetectionTask{
				{ID: "a", Dependencies: []string{"b"}, Detector: noopDetector},
				{ID: "b", Dependencies: []string{"a"}, Detector: noopDetector},
			},
			wantWarning: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewMemoryLogger()
			ordered, err := ValidateBatch(tt.tasks, logger)
			if err != nil {
				t.Fatalf("validation should warn, not fail: %v", err)
			}
			if len(ordered) != len(tt.tasks) {
				t.Fatalf("expected %d tasks back, got %d", len(tt.tasks), len(ordered))
			}

			var found bool
			for _, e := range logger.ByLevel(logging.LevelWarn) {
				if strings.Contains(e.Message, tt.wantWarning) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a warning mentioning %q", tt.wantWarning)
			}
		})
	}
}

func TestPrioritizedOrdering(t *testing.T) {
	tasks := []DetectionTask{
		{ID: "slow-low", Priority: 1, EstimatedTime: 3 * time.Second, Detector: noopDetector},
		{ID: "fast-high", Priority: 10, EstimatedTime: 100 * time.Millisecond, Detector: noopDetector},
		{ID: "slow-high", Priority: 10, EstimatedTime: 2 * time.Second, Detector: noopDetector},
		{ID: "fast-low", Priority: 1, EstimatedTime: 100 * time.Millisecond, Detector: noopDetector},
	}

	ordered, err := ValidateBatch(tasks, logging.Nop())
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}

	want := []string{"fast-high", "slow-high", "fast-low", "slow-low"}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Errorf("position %d: want %s, got %s", i, id, ordered[i].ID)
		}
	}
}

func TestValidateBatchDefaultsEstimate(t *testing.T) {
	ordered, err := ValidateBatch([]DetectionTask{{ID: "a", Detector: noopDetector}}, logging.Nop())
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if ordered[0].EstimatedTime != time.Second {
		t.Errorf("expected 1s default estimate, got %s", ordered[0].EstimatedTime)
	}
}

func TestValidateBatchDoesNotMutateInput(t *testing.T) {
	original := []DetectionTask{
		{ID: "b", Priority: 1, Detector: noopDetector},
		{ID: "a", Priority: 2, Dependencies: []string{"b"}, Detector: noopDetector},
	}

	ordered, err := ValidateBatch(original, logging.Nop())
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}

	ordered[0].Dependencies = append(ordered[0].Dependencies, "mutated")
	if len(original[1].Dependencies) != 1 {
		t.Error("validation must operate on a copy of the batch")
	}
	if original[0].ID != "b" {
		t.Error("input order must be preserved")
	}
}
