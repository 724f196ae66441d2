package cliframe

import "fmt"

// UnknownConfigVariableError is returned when a config file references a
// setting name the application never declared. It is always fatal.
type UnknownConfigVariableError struct {
	Path string
	Name string
}

func (e *UnknownConfigVariableError) Error() string {
	return fmt.Sprintf("%s: unknown configuration variable %s", e.Path, e.Name)
}

// MalformedConfigError is returned when a YAML config file is not a
// key/value mapping, lacks the required "config" key, or contains a
// section that is not a mapping.
type MalformedConfigError struct {
	Path   string
	Reason string
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("configuration file %s %s", e.Path, e.Reason)
}

// MissingConfigFileError is returned when a config file explicitly
// requested with --config cannot be read. Default config files that do
// not exist are skipped silently instead.
type MissingConfigFileError struct {
	Path string
	Err  error
}

func (e *MissingConfigFileError) Error() string {
	return fmt.Sprintf("required configuration file %s: %v", e.Path, e.Err)
}

func (e *MissingConfigFileError) Unwrap() error { return e.Err }
