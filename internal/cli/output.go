package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/config"
	"github.com/roach88/ledgerbook/internal/draft"
	"github.com/roach88/ledgerbook/internal/ledger"
	"github.com/roach88/ledgerbook/internal/recordstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input, duplicates, missing bills
	ExitCommandError = 2 // Command error (bad flags, config, database unavailable)
)

// Error codes, stable across releases.
const (
	ErrCodeGeneric            = "E001" // Generic/unknown error
	ErrCodeStorageUnavailable = "E002" // Database cannot be opened or used
	ErrCodeDuplicate          = "E003" // Duplicate bill number or product
	ErrCodeInvalidInput       = "E004" // Draft, filter, product or flag value rejected
	ErrCodeNotFound           = "E005" // Bill not found
	ErrCodeConfig             = "E006" // Configuration invalid or unreadable
	ErrCodeBackend            = "E007" // Low-level storage failure
)

var (
	errNotFound     = errors.New("not found")
	errInvalidInput = errors.New("invalid input")
	errConfig       = errors.New("configuration error")
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// failure is how an error is reported to the user.
type failure struct {
	Exit    int
	Code    string
	Message string
}

// describe maps an error to its exit code, error code and message.
// Domain marks win over an explicit ExitError code.
func describe(err error) failure {
	switch {
	case errors.Is(err, recordstore.ErrStorageUnavailable):
		return failure{ExitCommandError, ErrCodeStorageUnavailable, "database unavailable"}
	case errors.Is(err, ledger.ErrDuplicateBillNumber):
		return failure{ExitFailure, ErrCodeDuplicate, "bill number already exists"}
	case errors.Is(err, catalog.ErrDuplicateProduct):
		return failure{ExitFailure, ErrCodeDuplicate, "product already exists"}
	case errors.IsAny(err,
		ledger.ErrInvalidBill, ledger.ErrInvalidFilter, ledger.ErrUnknownCustomer,
		catalog.ErrInvalidProduct, draft.ErrInvalidDraft, draft.ErrUnsupportedFormat,
		errInvalidInput):
		return failure{ExitFailure, ErrCodeInvalidInput, err.Error()}
	case errors.Is(err, errNotFound):
		return failure{ExitFailure, ErrCodeNotFound, err.Error()}
	case errors.IsAny(err, config.ErrInvalidConfig, errConfig):
		return failure{ExitCommandError, ErrCodeConfig, err.Error()}
	case errors.Is(err, recordstore.ErrBackendIO):
		return failure{ExitFailure, ErrCodeBackend, "storage failure"}
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return failure{exitErr.Code, ErrCodeGeneric, err.Error()}
	}
	return failure{ExitCommandError, ErrCodeGeneric, err.Error()}
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return describe(err).Exit
}

// textRenderer is implemented by results with a human-readable form.
type textRenderer interface {
	RenderText(w io.Writer)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for errors and diagnostics (defaults to Writer)
	Verbose   bool
	TraceID   string
}

// NewOutputFormatter creates a formatter with a fresh trace id.
func NewOutputFormatter(opts *RootOptions, w, errW io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    w,
		ErrWriter: errW,
		Verbose:   opts.Verbose,
		TraceID:   newTraceID(),
	}
}

func newTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // correlates output with logs
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: f.TraceID,
		})
	}

	if r, ok := data.(textRenderer); ok {
		r.RenderText(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. JSON errors go to Writer
// so scripts always read one document from stdout; text errors go to
// ErrWriter.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: f.TraceID,
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns its exit code.
func (f *OutputFormatter) Fail(err error) int {
	d := describe(err)
	var details any
	if d.Message != err.Error() {
		details = err.Error()
	}
	_ = f.Error(d.Code, d.Message, details)
	return d.Exit
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
