package errors

// ErrorBuilder assembles a ClassifiedError step by step.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with error severity and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError is NewError with an underlying cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

// classified starts an error with the default severity and retry strategy of
// its category.
func classified(category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	if info, ok := categoryTable[category]; ok {
		b.err.severity = info.severity
		b.err.retry = info.retry
	}
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) Immediate() *ErrorBuilder  { return b.WithRetry(RetryImmediate) }
func (b *ErrorBuilder) RateLimit() *ErrorBuilder  { return b.WithRetry(RetryRateLimit) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused afterwards without
// affecting errors it already produced.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ConfigError reports an unusable configuration file or value.
func ConfigError(message string) *ErrorBuilder { return classified(CategoryConfig, message) }

// ValidationError reports bad command line input.
func ValidationError(message string) *ErrorBuilder { return classified(CategoryValidation, message) }

// AuthError reports rejected credentials. The operator has to fix them.
func AuthError(message string) *ErrorBuilder { return classified(CategoryAuth, message) }

// NotFoundError reports a missing remote document or local file.
func NotFoundError(message string) *ErrorBuilder { return classified(CategoryNotFound, message) }

func NetworkError(message string) *ErrorBuilder { return classified(CategoryNetwork, message) }

// StructureError reports a block tree that cannot be turned into sections.
// The run stops before any file is written.
func StructureError(message string) *ErrorBuilder { return classified(CategoryStructure, message) }

// TranslationError reports a failed backend call. The original text is kept,
// so it is only a warning.
func TranslationError(message string) *ErrorBuilder { return classified(CategoryTranslation, message) }

func GitError(message string) *ErrorBuilder { return classified(CategoryGit, message) }

func NotifyError(message string) *ErrorBuilder { return classified(CategoryNotify, message) }

// CacheError reports a translation memory failure. Translation continues
// without the memory.
func CacheError(message string) *ErrorBuilder { return classified(CategoryCache, message) }

func FileSystemError(message string) *ErrorBuilder { return classified(CategoryFileSystem, message) }
