// Package errors provides the classified error primitives used across docmigrate.
//
// A ClassifiedError carries a category (structure, translation, filesystem, ...),
// a severity, a retry strategy and structured context. Errors are built with the
// fluent ErrorBuilder and rendered for the terminal by CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryTranslation, "segment translation failed").
//		Retryable().
//		WithContext("language", "ja").
//		Build()
package errors
