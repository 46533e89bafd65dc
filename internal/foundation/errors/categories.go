package errors

import "maps"

// ErrorCategory names the subsystem an error came from. It decides the exit
// code of the binary and the defaults of the named constructors.
type ErrorCategory string

const (
	CategoryConfig      ErrorCategory = "config"
	CategoryValidation  ErrorCategory = "validation"
	CategoryAuth        ErrorCategory = "auth"
	CategoryNotFound    ErrorCategory = "not_found"
	CategoryNetwork     ErrorCategory = "network"
	CategoryTranslation ErrorCategory = "translation"
	CategoryGit         ErrorCategory = "git"
	CategoryNotify      ErrorCategory = "notify"
	CategoryStructure   ErrorCategory = "structure"
	CategoryFileSystem  ErrorCategory = "filesystem"
	CategoryCache       ErrorCategory = "cache"
	CategoryRuntime     ErrorCategory = "runtime"
	CategoryInternal    ErrorCategory = "internal"
)

// ErrorSeverity tells the pipeline whether it may continue after the error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the run
	SeverityError   ErrorSeverity = "error"   // fails the current stage
	SeverityWarning ErrorSeverity = "warning" // degraded output, run continues
)

// RetryStrategy tells callers whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit"
	RetryUserAction RetryStrategy = "user"
)

// Exit codes returned by the docmigrate binary.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitStructure  = 3
	ExitAuth       = 5
	ExitConfig     = 7
	ExitExternal   = 8
	ExitInternal   = 10
	ExitFileSystem = 11
	ExitRuntime    = 12
)

type categoryInfo struct {
	severity ErrorSeverity
	retry    RetryStrategy
	exit     int
}

var categoryTable = map[ErrorCategory]categoryInfo{
	CategoryConfig:      {SeverityFatal, RetryNever, ExitConfig},
	CategoryValidation:  {SeverityFatal, RetryNever, ExitUsage},
	CategoryAuth:        {SeverityError, RetryUserAction, ExitAuth},
	CategoryNotFound:    {SeverityError, RetryUserAction, ExitExternal},
	CategoryNetwork:     {SeverityError, RetryBackoff, ExitExternal},
	CategoryTranslation: {SeverityWarning, RetryBackoff, ExitExternal},
	CategoryGit:         {SeverityError, RetryBackoff, ExitExternal},
	CategoryNotify:      {SeverityWarning, RetryNever, ExitExternal},
	CategoryStructure:   {SeverityFatal, RetryNever, ExitStructure},
	CategoryFileSystem:  {SeverityError, RetryNever, ExitFileSystem},
	CategoryCache:       {SeverityWarning, RetryNever, ExitFileSystem},
	CategoryRuntime:     {SeverityFatal, RetryNever, ExitRuntime},
	CategoryInternal:    {SeverityFatal, RetryNever, ExitInternal},
}

// ExitCode returns the process exit code for errors of this category.
func (c ErrorCategory) ExitCode() int {
	if info, ok := categoryTable[c]; ok {
		return info.exit
	}
	return ExitGeneral
}

// ErrorContext holds structured key/value details attached to an error.
// It is copied on every write so errors sharing a parent never see each
// other's keys.
type ErrorContext map[string]any

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
