package config

import "git.home.luguber.info/inful/docmigrate/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var backoffModes = normalization.New(RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	mode, _ := backoffModes.Normalize(raw)
	return mode
}

// RetryConfig is the retry section shared by the remote API clients.
type RetryConfig struct {
	Backoff    string   `yaml:"backoff,omitempty"`
	Initial    Duration `yaml:"initial,omitempty"`
	Max        Duration `yaml:"max,omitempty"`
	MaxRetries int      `yaml:"max_retries,omitempty"`
}
