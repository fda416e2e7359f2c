package model

import (
	"errors"
	"fmt"
)

var (
	ReportNotFound      = errors.New("Report not found-")
	ReportParseError    = errors.New("Cannot parse report-")
	NoMatchingExecution = errors.New("No matching execution-")
	MissingResponse     = errors.New("Missing response-")
	ResponseDecodeError = errors.New("Cannot decode response-")
	MissingDataField    = errors.New("Missing data field-")
	ColumnMissing       = errors.New("Column missing-")
	RowMissing          = errors.New("Row missing-")
	FieldMismatch       = errors.New("Field mismatch-")
)

var fatalErrors = []error{ReportNotFound, ReportParseError, NoMatchingExecution}

// IsFatal reports whether err must stop the run. Record level errors only become fatal when
// strict mode returns them from the extractor, which the caller handles on its own.
func IsFatal(err error) bool {
	for _, fe := range fatalErrors {
		if errors.Is(err, fe) {
			return true
		}
	}
	return false
}

// IsSkip reports whether err means the execution was never converted.
func IsSkip(err error) bool {
	return errors.Is(err, MissingResponse) || errors.Is(err, ResponseDecodeError) ||
		errors.Is(err, MissingDataField)
}

func MakeReportNotFoundError(path string) error {
	return fmt.Errorf("%w%s does not exist. Did the test runner produce it?", ReportNotFound, path)
}

func MakeReportParseError(path string, err error) error {
	return fmt.Errorf("%w%s: %v", ReportParseError, path, err)
}

func MakeNoMatchingExecutionError(name string) error {
	return fmt.Errorf("%wno execution named %q in report", NoMatchingExecution, name)
}

func MakeMissingResponseError(e *Execution) error {
	return fmt.Errorf("%w%q (#%d) has no response body", MissingResponse, e.Name, e.Index)
}

func MakeResponseDecodeError(e *Execution, err error) error {
	return fmt.Errorf("%w%q (#%d): %v", ResponseDecodeError, e.Name, e.Index, err)
}

func MakeMissingDataFieldError(e *Execution) error {
	return fmt.Errorf("%w%q (#%d) response has no `data` object", MissingDataField, e.Name, e.Index)
}

func MakeColumnMissingError(column, path string) error {
	return fmt.Errorf("%w%s has no %q column", ColumnMissing, path, column)
}

func MakeRowMissingError(path string) error {
	return fmt.Errorf("%w%s has no data row", RowMissing, path)
}

func MakeFieldMismatchError(column, expected, actual string) error {
	return fmt.Errorf("%wAPI %s=%q but CSV has %q", FieldMismatch, column, expected, actual)
}

// CSVError wraps I/O failures while writing or re-reading a CSV artifact.
type CSVError struct {
	Err     error
	Message string
}

func (e *CSVError) Error() string {
	return e.Message
}

func (e *CSVError) Unwrap() error {
	return e.Err
}

func MakeCSVError(path string, err error) error {
	return &CSVError{Err: err, Message: fmt.Sprintf("csv artifact %s: %v", path, err)}
}
