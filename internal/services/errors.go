package services

import "fmt"

// ValidationError lists user input problems keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// NotConfiguredError reports a feature whose required setting is missing.
type NotConfiguredError struct {
	Setting string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}
