package asciixel

import "fmt"

// ConfigError reports an invalid setting. It is returned before any frame
// is processed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("asciixel: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError reports the first frame that could not be exported. The run
// carries on without exporting once it happens.
type ExportError struct {
	Frame int
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("asciixel: exporting frame %d: %v", e.Frame, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
