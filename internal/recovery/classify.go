// Package recovery provides the engine's error taxonomy and the retry,
// fallback, and circuit-breaker primitives detector implementations build on.
//
// Failures are represented as ClassifiedErrors: ordinary error values carrying
// a category, a severity, structured context, and a retryability decision.
// Detectors that want resilience compose WithRetry, AttemptRecovery, or
// WithBreaker around their own logic; the scheduler never retries on its own.
package recovery

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Category classifies what kind of operation failed.
type Category string

const (
	CategoryCommandExecution   Category = "command_execution"
	CategoryFilesystemAccess   Category = "filesystem_access"
	CategoryRegistryAccess     Category = "registry_access"
	CategoryNetworkAccess      Category = "network_access"
	CategoryTimeout            Category = "timeout"
	CategoryPermissionDenied   Category = "permission_denied"
	CategoryParsingError       Category = "parsing_error"
	CategoryConfigurationError Category = "configuration_error"
	CategorySystemUnsupported  Category = "system_unsupported"
	CategoryUnknown            Category = "unknown"
)

// Severity grades how serious a failure is for the overall run.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Context records where and how a failure happened. Optional fields stay
// empty when they don't apply.
type Context struct {
	Component   string
	Operation   string
	Timestamp   time.Time
	Platform    string
	Command     string
	FilePath    string
	RegistryKey string
	Metadata    map[string]any
}

// ClassifiedError is the engine's error type. It wraps an optional cause and
// carries everything a UI needs to display the failure without re-parsing
// error strings.
type ClassifiedError struct {
	Message         string
	Category        Category
	Severity        Severity
	Context         Context
	Retryable       bool
	SuggestedAction string
	Cause           error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Category, e.Cause)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Category)
}

// Unwrap exposes the chained cause to errors.Is/As.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// defaultRetryable holds the categories that are retryable unless the caller
// overrides the decision per error.
var defaultRetryable = map[Category]bool{
	CategoryCommandExecution: true,
	CategoryNetworkAccess:    true,
	CategoryTimeout:          true,
}

// defaultSeverity maps each category to its usual severity.
var defaultSeverity = map[Category]Severity{
	CategoryCommandExecution:   SeverityMedium,
	CategoryFilesystemAccess:   SeverityMedium,
	CategoryRegistryAccess:     SeverityMedium,
	CategoryNetworkAccess:      SeverityMedium,
	CategoryTimeout:            SeverityHigh,
	CategoryPermissionDenied:   SeverityHigh,
	CategoryParsingError:       SeverityLow,
	CategoryConfigurationError: SeverityHigh,
	CategorySystemUnsupported:  SeverityLow,
	CategoryUnknown:            SeverityMedium,
}

// defaultAction maps each category to a remediation hint suitable for
// direct display to an end user.
var defaultAction = map[Category]string{
	CategoryCommandExecution:   "Verify the command is installed and on PATH, then retry.",
	CategoryFilesystemAccess:   "Check that the path exists and is readable.",
	CategoryRegistryAccess:     "Check that the registry key exists and is readable.",
	CategoryNetworkAccess:      "Check network connectivity and retry.",
	CategoryTimeout:            "The probe took too long; retry or raise its timeout.",
	CategoryPermissionDenied:   "Re-run with sufficient privileges.",
	CategoryParsingError:       "The probe produced unexpected output; report this as a bug.",
	CategoryConfigurationError: "Fix the probe configuration and run again.",
	CategorySystemUnsupported:  "This probe does not apply to the current platform.",
	CategoryUnknown:            "Retry; if the failure persists, run with debug logging.",
}

// Option customizes a classification beyond the per-category defaults.
type Option func(*ClassifiedError)

// WithSeverity overrides the default severity for the category.
func WithSeverity(s Severity) Option {
	return func(e *ClassifiedError) { e.Severity = s }
}

// WithRetryable overrides the default retryability for the category.
func WithRetryable(retryable bool) Option {
	return func(e *ClassifiedError) { e.Retryable = retryable }
}

// WithSuggestedAction overrides the default remediation hint.
func WithSuggestedAction(action string) Option {
	return func(e *ClassifiedError) { e.SuggestedAction = action }
}

// WithCommand records the command that failed.
func WithCommand(cmd string) Option {
	return func(e *ClassifiedError) { e.Context.Command = cmd }
}

// WithFilePath records the file path involved in the failure.
func WithFilePath(path string) Option {
	return func(e *ClassifiedError) { e.Context.FilePath = path }
}

// WithRegistryKey records the registry key involved in the failure.
func WithRegistryKey(key string) Option {
	return func(e *ClassifiedError) { e.Context.RegistryKey = key }
}

// WithMetadata attaches a free-form key/value pair to the error context.
func WithMetadata(key string, value any) Option {
	return func(e *ClassifiedError) {
		if e.Context.Metadata == nil {
			e.Context.Metadata = make(map[string]any)
		}
		e.Context.Metadata[key] = value
	}
}

// Classify builds a ClassifiedError around cause. If cause is already a
// ClassifiedError it is returned unchanged so classifications survive
// wrapping layers. A nil cause produces a classification with no chain,
// which is how synthesized failures (e.g. timeouts) are built.
func Classify(cause error, category Category, component, operation, message string, opts ...Option) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(cause, &ce) {
		return ce
	}

	e := &ClassifiedError{
		Message:  message,
		Category: category,
		Severity: defaultSeverity[category],
		Context: Context{
			Component: component,
			Operation: operation,
			Timestamp: time.Now(),
			Platform:  runtime.GOOS,
		},
		Retryable:       defaultRetryable[category],
		SuggestedAction: defaultAction[category],
		Cause:           cause,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsRetryable reports whether err carries a retryable classification.
// Unclassified errors are not retryable.
func IsRetryable(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// CategoryOf returns the classification category of err, or CategoryUnknown
// for unclassified errors.
func CategoryOf(err error) Category {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}
