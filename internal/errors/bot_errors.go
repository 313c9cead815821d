package errors

import (
	"errors"
	"fmt"
)

// Category classifies what went wrong so callers can decide whether to
// skip, retry or escalate without string-matching messages.
type Category string

const (
	// CategoryData covers insufficient history and stale or duplicate
	// candles. Skipped, never retried; the next valid candle resolves it.
	CategoryData Category = "DATA"

	// CategoryExternal covers failures of collaborators: order placement,
	// balance queries, persistence, notifications. The attempted state
	// transition does not commit; the surrounding tick may retry.
	CategoryExternal Category = "EXTERNAL"

	// CategoryValidation covers risk and rate-limit rejections. A normal
	// negative result, not an exception path.
	CategoryValidation Category = "VALIDATION"

	// CategoryConcurrency marks a logic-level anomaly, e.g. an attempt to
	// open a second position for a symbol that is already OPEN. The
	// per-symbol exclusion discipline should make this unreachable.
	CategoryConcurrency Category = "CONCURRENCY"

	// CategoryConfig covers startup configuration failures. Fatal.
	CategoryConfig Category = "CONFIG"
)

// BotError carries a category plus the component and operation that
// produced it.
type BotError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
}

func (e *BotError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *BotError) Unwrap() error {
	return e.Underlying
}

// Retryable reports whether repeating the operation could succeed.
// Only external-service failures qualify.
func (e *BotError) Retryable() bool {
	return e.Category == CategoryExternal
}

// New creates a categorized error without an underlying cause.
func New(category Category, component, operation, message string) *BotError {
	return &BotError{Category: category, Component: component, Operation: operation, Message: message}
}

// Wrap attaches category and origin context to an existing error.
// Returns nil when err is nil.
func Wrap(err error, category Category, component, operation string) *BotError {
	if err == nil {
		return nil
	}
	return &BotError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// HasCategory reports whether err (or anything it wraps) is a BotError
// of the given category.
func HasCategory(err error, category Category) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Category == category
	}
	return false
}

func NewDataError(component, operation, message string) *BotError {
	return New(CategoryData, component, operation, message)
}

func NewValidationError(component, operation, message string) *BotError {
	return New(CategoryValidation, component, operation, message)
}

func NewConcurrencyError(component, operation, message string) *BotError {
	return New(CategoryConcurrency, component, operation, message)
}

func WrapExternal(err error, component, operation string) *BotError {
	return Wrap(err, CategoryExternal, component, operation)
}

func NewConfigError(component, operation, message string) *BotError {
	return New(CategoryConfig, component, operation, message)
}
