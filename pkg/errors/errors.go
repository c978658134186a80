// Package errors defines the error taxonomy shared by the product clients.
//
// Every failure returned from a Download call is either one of the sentinel
// values below or a typed error that matches one of them through errors.Is.
package errors

import (
	"fmt"
	"strings"
)

// Common error types.
var (
	// Request errors.
	ErrUnsupportedParameter = fmt.Errorf("unsupported parameter")
	ErrMissingCredentials   = fmt.Errorf("missing credentials")

	// Fetch errors.
	ErrRemoteUnavailable = fmt.Errorf("remote unavailable")
	ErrSyncToolFailure   = fmt.Errorf("sync tool failure")
	ErrWriteFailure      = fmt.Errorf("write failure")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// UnsupportedParameterError reports a request field outside a product's
// declared capabilities. It is always detected before any network call.
type UnsupportedParameterError struct {
	Product string   // Product name, e.g. "CHIRPS"
	Field   string   // Offending field: timestep, version, run, dataset or date
	Value   string   // Value supplied by the caller
	Allowed []string // Allowed values, or a human-readable range for dates
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("%s: unsupported %s %q, allowed: %s",
		e.Product, e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Is makes the error match ErrUnsupportedParameter.
func (e *UnsupportedParameterError) Is(target error) bool {
	return target == ErrUnsupportedParameter
}

// RemoteUnavailableError represents a non-success HTTP status or a transport
// failure. StatusCode is 0 when no response was received.
type RemoteUnavailableError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteUnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote unavailable: %s (HTTP %d)", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote unavailable: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("remote unavailable: %s", e.URL)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrRemoteUnavailable.
func (e *RemoteUnavailableError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

// SyncToolError reports a non-zero exit of the external synchronization tool.
// ExitCode is -1 when the tool could not be started at all.
type SyncToolError struct {
	Tool     string
	ExitCode int
	Output   string // Combined stdout/stderr captured from the tool
	Err      error
}

func (e *SyncToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *SyncToolError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrSyncToolFailure.
func (e *SyncToolError) Is(target error) bool {
	return target == ErrSyncToolFailure
}

// WriteError represents a local filesystem failure while materializing a
// download.
type WriteError struct {
	Path string
	Op   string // create, write, decompress, finalize...
	Err  error
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to %s %s", e.Op, e.Path)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrWriteFailure.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailure
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
