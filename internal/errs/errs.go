// Package errs defines the error taxonomy shared by the data preparation
// pipeline. All validation happens eagerly at construction time; any of
// these errors aborts loader construction.
package errs

import "fmt"

// ConfigError reports an invalid configuration parameter.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %q: %s", e.Param, e.Reason)
}

// Config builds a ConfigError for the named parameter.
func Config(param, format string, args ...interface{}) error {
	return &ConfigError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// DataError reports a missing or unusable data source.
type DataError struct {
	Source string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data source %q: %s", e.Source, e.Reason)
}

// Data builds a DataError for the named source.
func Data(source, format string, args ...interface{}) error {
	return &DataError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// ShapeError reports misaligned array dimensions between pipeline stages.
type ShapeError struct {
	Context string
	Want    []int
	Got     []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %v, got %v", e.Context, e.Want, e.Got)
}

// Shape builds a ShapeError.
func Shape(context string, want, got []int) error {
	return &ShapeError{Context: context, Want: want, Got: got}
}
