package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailed indicates a source file the grammar could not recognise
	ParseFailed ErrorCode = "PARSE_ERROR"
	// ModelInvalid indicates the API model for a revision could not be built
	ModelInvalid ErrorCode = "MODEL_ERROR"
	// BaseCycle indicates a class inherits from itself through its bases
	BaseCycle ErrorCode = "BASE_CYCLE"
	// NameCollision indicates two files produced the same qualified name
	NameCollision ErrorCode = "NAME_COLLISION"
	// TreeUnavailable indicates a revision's file tree could not be materialised
	TreeUnavailable ErrorCode = "TREE_UNAVAILABLE"
	// ConfigInvalid indicates a configuration or ignore file is malformed
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error is the coded error returned by every pysemver package.
// File, Line and Column locate parse errors; QualifiedName locates model errors.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	File           string      `json:"file,omitempty"`
	Line           int         `json:"line,omitempty"`
	Column         int         `json:"column,omitempty"`
	QualifiedName  string      `json:"qualifiedName,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error
func New(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// NewParseError reports unrecognised syntax at file:line:column (1-based line, 0-based column).
func NewParseError(file string, line, column int, message string) *Error {
	return &Error{
		Code:    ParseFailed,
		Message: message,
		File:    file,
		Line:    line,
		Column:  column,
	}
}

// NewModelError reports a fatal modelling problem for one qualified name.
func NewModelError(code ErrorCode, qualifiedName, file, message string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		File:          file,
		QualifiedName: qualifiedName,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	loc := e.location()
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if loc != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Code, loc, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *Error) location() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	case e.File != "" && e.QualifiedName != "":
		return fmt.Sprintf("%s (%s)", e.File, e.QualifiedName)
	case e.File != "":
		return e.File
	default:
		return e.QualifiedName
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithFile sets the file an error refers to.
func (e *Error) WithFile(file string) *Error {
	e.File = file
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsParseError reports whether err is a parse failure.
func IsParseError(err error) bool {
	return CodeOf(err) == ParseFailed
}

// IsModelError reports whether err is a model failure (cycles and collisions included).
func IsModelError(err error) bool {
	switch CodeOf(err) {
	case ModelInvalid, BaseCycle, NameCollision:
		return true
	}
	return false
}

// IsFatal reports whether err prevents diffing a revision.
func IsFatal(err error) bool {
	return IsParseError(err) || IsModelError(err)
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	TreeUnavailable: {
		{
			Type:        RunCommand,
			Command:     "git fetch --tags",
			Safe:        true,
			Description: "Make sure the baseline ref exists locally",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditFile,
			Description: "Check pysemver.toml and .pysemver-ignore.toml for unknown keys",
		},
	},
	BaseCycle: {
		{
			Type:        EditFile,
			Description: "Break the inheritance cycle; Python rejects it at import time",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
